// Package ws streams embedding events to the host UI over a WebSocket.
//
// Message Types (Server → Client):
//   - snapshot: the session Info at connect time
//   - any embed event type (state_changed, embedded, resized, ...)
//   - pong: reply to a client ping
//   - error: malformed client message
//
// Message Types (Client → Server):
//   - ping: keep-alive
//   - snapshot: request the current session Info again
//
// Example Usage:
//
//	handler := ws.NewHandler(coord.Events(), coord.Info, cfg.Server.AllowOrigins, metrics, logger)
//	router.GET("/embed/events", handler.HandleConnection)
package ws
