package service

// Broadcaster pushes events to connected clients (avoids an import cycle with
// the ws transport). The service decides recipients; the hub just delivers.
type Broadcaster interface {
	// SendToConn delivers one event to a single connection. Unknown or closed
	// connection ids are silently dropped.
	SendToConn(connID string, event string, payload interface{})
}
