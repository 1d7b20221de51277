// Package native wraps the platform window manager calls needed to host a
// foreign top-level window inside the shell.
//
// Every call is a direct, synchronous system call. Failures are returned to
// the caller as errors; logging and fallback policy belong to the caller.
//
// Only Win32 is implemented. Other platforms compile against a stub whose
// operations return ErrUnsupported.
package native
