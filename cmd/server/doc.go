// Command server runs the embed host: a loopback HTTP service that the shell
// UI calls to launch the external editor and keep it embedded as a
// borderless child of the shell window.
//
// Settings come from the environment (see internal/infrastructure/config)
// and an optional editor profile. Flags override both:
//
//	server -port 8765 -profile editor.yaml -host-window 0x1a2b
//
// SIGINT and SIGTERM detach the editor and shut the server down.
package main
