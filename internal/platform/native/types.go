package native

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupported is returned by every operation on platforms without a
// window manager binding.
var ErrUnsupported = errors.New("native window embedding is not supported on this platform")

// Handle is an opaque OS window handle. The zero value means "no window".
type Handle uintptr

// String formats the handle as hex, the way window inspectors show it.
func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uintptr(h))
}

// ParseHandle accepts decimal or 0x-prefixed hex handle strings.
func ParseHandle(s string) (Handle, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q: %w", s, err)
	}
	return Handle(v), nil
}

// MarshalText encodes the handle as hex so JSON clients never see a
// 64-bit number they cannot represent.
func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts anything ParseHandle does.
func (h *Handle) UnmarshalText(text []byte) error {
	v, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Style is a window style bitmask (GWL_STYLE).
type Style uint32

// Window style bits.
const (
	WS_BORDER      Style = 0x00800000
	WS_DLGFRAME    Style = 0x00400000
	WS_CAPTION     Style = WS_BORDER | WS_DLGFRAME
	WS_SYSMENU     Style = 0x00080000
	WS_THICKFRAME  Style = 0x00040000
	WS_MINIMIZEBOX Style = 0x00020000
	WS_MAXIMIZEBOX Style = 0x00010000
	WS_CHILD       Style = 0x40000000
	WS_POPUP       Style = 0x80000000
	WS_VISIBLE     Style = 0x10000000
)

// Has reports whether all bits in mask are set.
func (s Style) Has(mask Style) bool {
	return s&mask == mask
}

// Rect is a position and size relative to the host client area.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether the rect has no area. A zero-size rect is how a
// hidden embedded window is represented.
func (r Rect) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

// Validate rejects negative sizes.
func (r Rect) Validate() error {
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("invalid rect size %dx%d", r.Width, r.Height)
	}
	return nil
}

// WindowInfo describes a visible top-level window.
type WindowInfo struct {
	Handle Handle `json:"handle"`
	Title  string `json:"title"`
	PID    int    `json:"pid"`
}
