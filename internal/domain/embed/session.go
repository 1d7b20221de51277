package embed

import (
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// State is the lifecycle state of an embedding session.
type State int

const (
	StateIdle State = iota
	StateLaunching
	StateDiscovering
	StateReparenting
	StateEmbedded
	StateDetaching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunching:
		return "launching"
	case StateDiscovering:
		return "discovering"
	case StateReparenting:
		return "reparenting"
	case StateEmbedded:
		return "embedded"
	case StateDetaching:
		return "detaching"
	default:
		return "unknown"
	}
}

// Session is the state of one embedding slot. It is owned by a Coordinator
// and mutated only through it.
//
// NativeHandle is non-zero exactly while State is StateEmbedded. HostHandle
// is borrowed from the host UI and never mutated.
type Session struct {
	NativeHandle  native.Handle
	HostHandle    native.Handle
	ProcessID     int
	WorkspacePath string
	Bounds        native.Rect
	Visible       bool
	State         State

	// lastShown is the most recent non-zero Bounds, replayed by SetVisible(true).
	lastShown native.Rect
}

// Info is the snapshot handed to the host UI.
type Info struct {
	ProcessID     int           `json:"pid"`
	Handle        native.Handle `json:"handle"`
	HostHandle    native.Handle `json:"host_handle"`
	WorkspacePath string        `json:"workspace_path"`
	IsRunning     bool          `json:"is_running"`
	State         string        `json:"state"`
	Visible       bool          `json:"visible"`
	Bounds        native.Rect   `json:"bounds"`
	// LaunchGuard is the launch breaker state, empty without a guard.
	LaunchGuard   string        `json:"launch_guard,omitempty"`
}
