// Package ws streams live previews over WebSocket.
//
// Each connection owns one headless preview session stepped at the
// configured frame rate. Only the connection's own goroutine touches the
// session; a reader goroutine forwards client messages to it.
//
// Message Types (Client → Server):
//   - run: Load code (optional kind, width, height) and start stepping
//   - resize: Resize the mount point
//   - stop: Tear down the running program
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Greeting with the session id and frame rate
//   - started: Program loaded, with the detected kind
//   - tick: Frame statistics every DefaultTickEvery frames
//   - error: A message reported through onError, or a protocol error
//   - stopped: Program torn down
//   - pong: Keep-alive reply
//
// Example Usage:
//
//	handler := ws.NewHandler(preview.ConfigFrom(cfg.Sandbox), logger, metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
