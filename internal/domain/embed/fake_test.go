package embed

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

const (
	hostHandle   native.Handle = 0x100
	editorHandle native.Handle = 0x200

	decoratedStyle = native.WS_CAPTION | native.WS_THICKFRAME | native.WS_SYSMENU |
		native.WS_MINIMIZEBOX | native.WS_MAXIMIZEBOX | native.WS_VISIBLE
)

var errFake = errors.New("fake native failure")

// fakeBridge simulates a window manager with a handful of top-level windows.
type fakeBridge struct {
	mu sync.Mutex

	windows map[native.Handle]native.WindowInfo
	order   []native.Handle
	styles  map[native.Handle]native.Style
	parents map[native.Handle]native.Handle
	rects   map[native.Handle]native.Rect
	dead    map[native.Handle]bool
	calls   map[string]int
	log     []string

	enumErr      error
	setParentErr error
	getStyleErr  error
	killErr      error
	killed       []int
	// perturbOnMove re-adds a caption on every move, as some systems do.
	perturbOnMove bool
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		windows: make(map[native.Handle]native.WindowInfo),
		styles:  make(map[native.Handle]native.Style),
		parents: make(map[native.Handle]native.Handle),
		rects:   make(map[native.Handle]native.Rect),
		dead:    make(map[native.Handle]bool),
		calls:   make(map[string]int),
	}
}

func (b *fakeBridge) record(name string) {
	b.calls[name]++
	b.log = append(b.log, name)
}

func (b *fakeBridge) addWindow(h native.Handle, title string, pid int, style native.Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[h]; !ok {
		b.order = append(b.order, h)
	}
	b.windows[h] = native.WindowInfo{Handle: h, Title: title, PID: pid}
	b.styles[h] = style
	delete(b.parents, h)
	delete(b.dead, h)
}

func (b *fakeBridge) decorate(h native.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.styles[h] |= native.WS_CAPTION | native.WS_THICKFRAME
}

func (b *fakeBridge) kill(h native.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dead[h] = true
}

func (b *fakeBridge) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBridge) resetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = make(map[string]int)
	b.log = nil
}

func (b *fakeBridge) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.log...)
}

func (b *fakeBridge) style(h native.Handle) native.Style {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.styles[h]
}

func (b *fakeBridge) rect(h native.Handle) native.Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rects[h]
}

func (b *fakeBridge) parent(h native.Handle) native.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parents[h]
}

func (b *fakeBridge) EnumerateVisibleWindows() ([]native.WindowInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("EnumerateVisibleWindows")
	if b.enumErr != nil {
		return nil, b.enumErr
	}
	out := make([]native.WindowInfo, 0, len(b.order))
	for _, h := range b.order {
		if b.dead[h] || b.parents[h] != 0 {
			continue
		}
		out = append(out, b.windows[h])
	}
	return out, nil
}

func (b *fakeBridge) SetParent(child, parent native.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("SetParent")
	if b.setParentErr != nil {
		return b.setParentErr
	}
	b.parents[child] = parent
	return nil
}

func (b *fakeBridge) Parent(h native.Handle) (native.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Parent")
	return b.parents[h], nil
}

func (b *fakeBridge) GetStyle(h native.Handle) (native.Style, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("GetStyle")
	if b.getStyleErr != nil {
		return 0, b.getStyleErr
	}
	return b.styles[h], nil
}

func (b *fakeBridge) SetStyle(h native.Handle, style native.Style) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("SetStyle")
	b.styles[h] = style
	return nil
}

func (b *fakeBridge) ApplyFrameChange(h native.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ApplyFrameChange")
	return nil
}

func (b *fakeBridge) MoveResize(h native.Handle, r native.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("MoveResize")
	b.rects[h] = r
	if b.perturbOnMove {
		b.styles[h] |= native.WS_CAPTION
	}
	return nil
}

func (b *fakeBridge) Redraw(h native.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Redraw")
	return nil
}

func (b *fakeBridge) Focus(h native.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Focus")
	return nil
}

func (b *fakeBridge) Activate(h native.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Activate")
	return nil
}

func (b *fakeBridge) PostClose(h native.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("PostClose")
	return nil
}

func (b *fakeBridge) KillProcess(pid int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("KillProcess")
	if b.killErr != nil {
		return b.killErr
	}
	b.killed = append(b.killed, pid)
	return nil
}

func (b *fakeBridge) IsWindow(h native.Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.windows[h]
	return ok && !b.dead[h]
}

// fakeLauncher records launches; onLaunch lets a test make the editor
// window appear the way a real editor would after startup.
type fakeLauncher struct {
	mu sync.Mutex

	nextPID      int
	launches     int
	workspaces   int
	running      map[int]bool
	terminated   []int
	launchErr    error
	terminateErr error
	launchDelay  time.Duration
	onLaunch     func(workspace string, pid int)
	exited       chan int
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		nextPID: 4000,
		running: make(map[int]bool),
		exited:  make(chan int, 4),
	}
}

func (l *fakeLauncher) NewWorkspace() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.workspaces++
	return filepath.Join("workspaces", fmt.Sprintf("ws_TEST%02d", l.workspaces))
}

func (l *fakeLauncher) Launch(ctx context.Context, workspace string) (int, error) {
	if l.launchDelay > 0 {
		time.Sleep(l.launchDelay)
	}

	l.mu.Lock()
	l.launches++
	if l.launchErr != nil {
		l.mu.Unlock()
		return 0, l.launchErr
	}
	l.nextPID++
	pid := l.nextPID
	l.running[pid] = true
	hook := l.onLaunch
	l.mu.Unlock()

	if hook != nil {
		hook(workspace, pid)
	}
	return pid, nil
}

func (l *fakeLauncher) Terminate(pid int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.terminated = append(l.terminated, pid)
	if l.terminateErr != nil {
		return l.terminateErr
	}
	delete(l.running, pid)
	return nil
}

func (l *fakeLauncher) Running(pid int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running[pid]
}

func (l *fakeLauncher) Exited() <-chan int {
	return l.exited
}

// exit marks pid dead and reports it the way the process reaper does.
func (l *fakeLauncher) exit(pid int) {
	l.mu.Lock()
	delete(l.running, pid)
	l.mu.Unlock()
	l.exited <- pid
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *fakeLauncher) terminatedPIDs() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.terminated...)
}

// editorAppears wires a launcher so each launch opens a decorated editor
// window titled after its workspace.
func editorAppears(b *fakeBridge, l *fakeLauncher) {
	l.onLaunch = func(workspace string, pid int) {
		b.addWindow(editorHandle, filepath.Base(workspace)+" - Visual Studio Code", pid, decoratedStyle)
	}
}
