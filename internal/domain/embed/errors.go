package embed

import (
	"errors"
	"fmt"
)

// Kind classifies an embedding failure for the host UI.
type Kind string

const (
	KindLaunchFailed     Kind = "launch_failed"
	KindWindowNotFound   Kind = "window_not_found"
	KindReparentFailed   Kind = "reparent_failed"
	KindAlreadyEmbedding Kind = "already_embedding"
	KindDetachPartial    Kind = "detach_partial"
	KindNotEmbedded      Kind = "not_embedded"
	KindUnavailable      Kind = "unavailable"
	KindNativeCall       Kind = "native_call_failed"
	KindInvalidRequest   Kind = "invalid_request"
)

// Error is the structured failure returned by Coordinator operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with
// errors.Is regardless of Op and cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrLaunchFailed     = &Error{Kind: KindLaunchFailed}
	ErrWindowNotFound   = &Error{Kind: KindWindowNotFound}
	ErrReparentFailed   = &Error{Kind: KindReparentFailed}
	ErrAlreadyEmbedding = &Error{Kind: KindAlreadyEmbedding}
	ErrDetachPartial    = &Error{Kind: KindDetachPartial}
	ErrNotEmbedded      = &Error{Kind: KindNotEmbedded}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
	ErrInvalidRequest   = &Error{Kind: KindInvalidRequest}
)

// ErrNotFound is returned by Discovery when every attempt is exhausted.
var ErrNotFound = errors.New("no matching window")

var (
	// ErrEmbeddedWindow refuses CloseWindow on the window being hosted.
	ErrEmbeddedWindow = errors.New("window is embedded; detach it instead")
	ErrNoWindow       = errors.New("no window handle")
)

var (
	// errDetached is the cause reported to an embed that lost a race with Detach.
	errDetached = errors.New("session detached while embedding")
	errNoHost   = errors.New("no host window set")
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
