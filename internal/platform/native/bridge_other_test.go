//go:build !windows

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubBridgeReportsUnsupported(t *testing.T) {
	b := NewBridge()

	_, err := b.EnumerateVisibleWindows()
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.ErrorIs(t, b.SetParent(1, 2), ErrUnsupported)
	assert.ErrorIs(t, b.MoveResize(1, Rect{Width: 10, Height: 10}), ErrUnsupported)
	assert.ErrorIs(t, b.KillProcess(1234), ErrUnsupported)
	assert.False(t, b.IsWindow(1))
}
