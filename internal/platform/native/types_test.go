package native

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in      string
		want    Handle
		wantErr bool
	}{
		{in: "0x1A2B", want: 0x1A2B},
		{in: "4242", want: 4242},
		{in: "not-a-handle", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, err := ParseHandle(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestHandleString(t *testing.T) {
	assert.Equal(t, "0x1A2B", Handle(0x1A2B).String())
}

func TestRectIsZero(t *testing.T) {
	assert.True(t, Rect{}.IsZero())
	assert.True(t, Rect{X: 10, Y: 20}.IsZero())
	assert.False(t, Rect{Width: 1}.IsZero())
	assert.Error(t, Rect{Width: -1, Height: 10}.Validate())
	assert.NoError(t, Rect{Width: 1000, Height: 800}.Validate())
}

func TestStyleHas(t *testing.T) {
	assert.True(t, WS_CAPTION.Has(WS_BORDER))
	assert.True(t, WS_CAPTION.Has(WS_DLGFRAME))
	assert.False(t, WS_BORDER.Has(WS_CAPTION))
}

func TestHandleJSON(t *testing.T) {
	out, err := json.Marshal(WindowInfo{Handle: 0x200, Title: "editor", PID: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"handle":"0x200","title":"editor","pid":7}`, string(out))

	var in struct {
		Host Handle `json:"host"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"host":"0x1a2b"}`), &in))
	assert.Equal(t, Handle(0x1A2B), in.Host)

	assert.Error(t, json.Unmarshal([]byte(`{"host":"window"}`), &in))
}
