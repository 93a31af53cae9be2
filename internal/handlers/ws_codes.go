// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the friend events socket.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	StreamClosedError   = 3001 // Event subscription was closed by the hub.
)
