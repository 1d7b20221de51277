package embed

import (
	"context"
	"time"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// Bridge is the set of native window manager calls the embedder needs.
// *native.Bridge implements it.
type Bridge interface {
	EnumerateVisibleWindows() ([]native.WindowInfo, error)
	SetParent(child, parent native.Handle) error
	Parent(h native.Handle) (native.Handle, error)
	GetStyle(h native.Handle) (native.Style, error)
	SetStyle(h native.Handle, style native.Style) error
	ApplyFrameChange(h native.Handle) error
	MoveResize(h native.Handle, r native.Rect) error
	Redraw(h native.Handle) error
	Focus(h native.Handle) error
	Activate(h native.Handle) error
	PostClose(h native.Handle) error
	KillProcess(pid int) error
	IsWindow(h native.Handle) bool
}

// Launcher starts and stops the foreign process.
type Launcher interface {
	// NewWorkspace returns a fresh workspace path. The directory is created by Launch.
	NewWorkspace() string
	Launch(ctx context.Context, workspace string) (int, error)
	Terminate(pid int) error
	Running(pid int) bool
	// Exited delivers the pid of every launched process that exits.
	Exited() <-chan int
}

// Observer receives embedding telemetry. monitoring.EmbedMetrics implements it.
type Observer interface {
	StateChanged(from, to State)
	DiscoveryAttempt(found bool)
	StyleCorrected()
	Operation(op string, err error, took time.Duration)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State, State)             {}
func (nopObserver) DiscoveryAttempt(bool)                 {}
func (nopObserver) StyleCorrected()                       {}
func (nopObserver) Operation(string, error, time.Duration) {}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
