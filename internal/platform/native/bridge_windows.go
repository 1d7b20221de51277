//go:build windows

package native

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procSetParent           = user32.NewProc("SetParent")
	procGetParent           = user32.NewProc("GetParent")
	procGetWindowLongW      = user32.NewProc("GetWindowLongW")
	procSetWindowLongW      = user32.NewProc("SetWindowLongW")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procMoveWindow          = user32.NewProc("MoveWindow")
	procRedrawWindow        = user32.NewProc("RedrawWindow")
	procSetFocus            = user32.NewProc("SetFocus")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	procPostMessageW        = user32.NewProc("PostMessageW")
	procSetLastError        = kernel32.NewProc("SetLastError")
)

const (
	gwlStyle = ^uintptr(15) // GWL_STYLE (-16)

	swpNoSize         = 0x0001
	swpNoMove         = 0x0002
	swpNoZOrder       = 0x0004
	swpNoActivate     = 0x0010
	swpFrameChanged   = 0x0020
	rdwInvalidate     = 0x0001
	rdwAllChildren    = 0x0080
	rdwUpdateNow      = 0x0100
	rdwFrame          = 0x0400
	wmClose           = 0x0010
	maxWindowTitleLen = 512
)

// enumCallback is shared by every EnumWindows call; windows.NewCallback
// slots are a finite process-wide resource.
var (
	enumOnce     sync.Once
	enumCallback uintptr
)

type enumAccumulator struct {
	handles []windows.HWND
}

func enumWindowsProc() uintptr {
	enumOnce.Do(func() {
		enumCallback = windows.NewCallback(func(hwnd windows.HWND, lparam uintptr) uintptr {
			acc := (*enumAccumulator)(unsafe.Pointer(lparam))
			acc.handles = append(acc.handles, hwnd)
			return 1
		})
	})
	return enumCallback
}

// Bridge issues Win32 window manager calls.
type Bridge struct{}

// NewBridge returns the Win32 bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// call clears the thread's last error first so a zero return can be told
// apart from a legitimately zero result.
func call(proc *windows.LazyProc, args ...uintptr) (uintptr, error) {
	procSetLastError.Call(0)
	r, _, errno := proc.Call(args...)
	if r == 0 {
		if en, ok := errno.(windows.Errno); ok && en != 0 {
			return 0, fmt.Errorf("%s: %w", proc.Name, en)
		}
	}
	return r, nil
}

// EnumerateVisibleWindows lists visible top-level windows with their titles.
func (b *Bridge) EnumerateVisibleWindows() ([]WindowInfo, error) {
	acc := &enumAccumulator{}
	if err := windows.EnumWindows(enumWindowsProc(), unsafe.Pointer(acc)); err != nil {
		return nil, fmt.Errorf("EnumWindows: %w", err)
	}

	windowsOut := make([]WindowInfo, 0, len(acc.handles))
	buf := make([]uint16, maxWindowTitleLen)
	for _, hwnd := range acc.handles {
		if !windows.IsWindowVisible(hwnd) {
			continue
		}
		n, err := windows.GetWindowText(hwnd, &buf[0], int32(len(buf)))
		if err != nil || n == 0 {
			continue
		}
		var pid uint32
		_, _ = windows.GetWindowThreadProcessId(hwnd, &pid)
		windowsOut = append(windowsOut, WindowInfo{
			Handle: Handle(hwnd),
			Title:  windows.UTF16ToString(buf[:n]),
			PID:    int(pid),
		})
	}
	return windowsOut, nil
}

// SetParent makes child a child window of parent.
func (b *Bridge) SetParent(child, parent Handle) error {
	_, err := call(procSetParent, uintptr(child), uintptr(parent))
	return err
}

// Parent returns the parent window, or zero for a top-level window.
func (b *Bridge) Parent(h Handle) (Handle, error) {
	r, err := call(procGetParent, uintptr(h))
	return Handle(r), err
}

// GetStyle reads GWL_STYLE.
func (b *Bridge) GetStyle(h Handle) (Style, error) {
	r, err := call(procGetWindowLongW, uintptr(h), gwlStyle)
	return Style(uint32(r)), err
}

// SetStyle writes GWL_STYLE.
func (b *Bridge) SetStyle(h Handle, style Style) error {
	_, err := call(procSetWindowLongW, uintptr(h), gwlStyle, uintptr(style))
	return err
}

// ApplyFrameChange makes the OS recompute the non-client area after a style
// change without moving or activating the window.
func (b *Bridge) ApplyFrameChange(h Handle) error {
	_, err := call(procSetWindowPos, uintptr(h), 0, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoZOrder|swpNoActivate|swpFrameChanged)
	return err
}

// MoveResize positions the window relative to its parent's client area.
func (b *Bridge) MoveResize(h Handle, r Rect) error {
	_, err := call(procMoveWindow, uintptr(h),
		uintptr(int32(r.X)), uintptr(int32(r.Y)),
		uintptr(int32(r.Width)), uintptr(int32(r.Height)), 1)
	return err
}

// Redraw invalidates the window, its frame and its children and repaints now.
func (b *Bridge) Redraw(h Handle) error {
	_, err := call(procRedrawWindow, uintptr(h), 0, 0,
		rdwInvalidate|rdwUpdateNow|rdwAllChildren|rdwFrame)
	return err
}

// Focus gives keyboard focus to a child window.
func (b *Bridge) Focus(h Handle) error {
	_, err := call(procSetFocus, uintptr(h))
	return err
}

// Activate brings a top-level window to the foreground.
func (b *Bridge) Activate(h Handle) error {
	r, _, _ := procSetForegroundWindow.Call(uintptr(h))
	if r == 0 {
		return fmt.Errorf("SetForegroundWindow refused for %s", h)
	}
	return nil
}

// PostClose posts WM_CLOSE to the window's message queue.
func (b *Bridge) PostClose(h Handle) error {
	_, err := call(procPostMessageW, uintptr(h), wmClose, 0, 0)
	return err
}

// KillProcess terminates a process by id without a graceful shutdown.
func (b *Bridge) KillProcess(pid int) error {
	ph, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess %d: %w", pid, err)
	}
	defer windows.CloseHandle(ph)

	if err := windows.TerminateProcess(ph, 1); err != nil {
		return fmt.Errorf("TerminateProcess %d: %w", pid, err)
	}
	return nil
}

// IsWindow reports whether h still identifies an existing window.
func (b *Bridge) IsWindow(h Handle) bool {
	return windows.IsWindow(windows.HWND(h))
}
