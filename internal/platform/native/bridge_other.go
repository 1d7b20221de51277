//go:build !windows

package native

// Bridge is the stub used where no window manager binding exists.
type Bridge struct{}

// NewBridge returns the stub bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

func (b *Bridge) EnumerateVisibleWindows() ([]WindowInfo, error) { return nil, ErrUnsupported }
func (b *Bridge) SetParent(child, parent Handle) error           { return ErrUnsupported }
func (b *Bridge) Parent(h Handle) (Handle, error)                { return 0, ErrUnsupported }
func (b *Bridge) GetStyle(h Handle) (Style, error)               { return 0, ErrUnsupported }
func (b *Bridge) SetStyle(h Handle, style Style) error           { return ErrUnsupported }
func (b *Bridge) ApplyFrameChange(h Handle) error                { return ErrUnsupported }
func (b *Bridge) MoveResize(h Handle, r Rect) error              { return ErrUnsupported }
func (b *Bridge) Redraw(h Handle) error                          { return ErrUnsupported }
func (b *Bridge) Focus(h Handle) error                           { return ErrUnsupported }
func (b *Bridge) Activate(h Handle) error                        { return ErrUnsupported }
func (b *Bridge) PostClose(h Handle) error                       { return ErrUnsupported }
func (b *Bridge) KillProcess(pid int) error                      { return ErrUnsupported }
func (b *Bridge) IsWindow(h Handle) bool                         { return false }
