package redisstack

// EventType names a connection lifecycle event.
type EventType string

const (
	// EventConnect is emitted when a socket is dialed.
	EventConnect EventType = "connect"
	// EventReady is emitted when the handshake completed and the connection joins its pool.
	EventReady EventType = "ready"
	// EventEnd is emitted when a connection is closed.
	EventEnd EventType = "end"
	// EventError is emitted when dialing or the handshake fails.
	EventError EventType = "error"
)

// Event is delivered to Config.OnEvent. Err is set for EventError.
type Event struct {
	Type EventType
	Addr string
	Err  error
}
