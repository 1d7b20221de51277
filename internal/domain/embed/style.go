package embed

import "github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"

// decorationBits are the frame and chrome bits a foreign window tries to
// restore. WS_POPUP is cleared as well since it cannot coexist with WS_CHILD.
const decorationBits = native.WS_THICKFRAME |
	native.WS_MINIMIZEBOX |
	native.WS_MAXIMIZEBOX |
	native.WS_CAPTION |
	native.WS_BORDER |
	native.WS_DLGFRAME |
	native.WS_SYSMENU |
	native.WS_POPUP

// ComputeEmbeddedStyle returns the borderless, non-resizable child style for
// a window currently styled as current. All other bits are preserved.
func ComputeEmbeddedStyle(current native.Style) native.Style {
	return current&^decorationBits | native.WS_CHILD | native.WS_VISIBLE
}

// HasDecorations reports whether any frame or chrome bit is set.
func HasDecorations(s native.Style) bool {
	return s&decorationBits != 0
}
