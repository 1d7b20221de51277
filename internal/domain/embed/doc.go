// Package embed hosts a foreign, independently running GUI process as a
// borderless child region of the shell window.
//
// The foreign process keeps trying to reassert its own title bar and resize
// border, so embedding is not a one-off reparent: the
// Coordinator drives a session through
//
//	Idle -> Launching -> Discovering -> Reparenting -> Embedded -> Detaching -> Idle
//
// and, while Embedded, an Enforcer re-applies the embedded style mask on a
// fixed period. Resize and visibility requests from the host UI route through
// the Coordinator, which is the only writer of session state. State changes
// are published on a Bus that the UI subscribes to.
package embed
