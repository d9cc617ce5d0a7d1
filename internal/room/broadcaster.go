package room

// Conn is one attached client connection, as seen by a room actor.
type Conn interface {
	ID() string
	Send(data []byte)
}

// Broadcaster is the transport capability injected into room actors. The
// actor is the only component that talks to it, and all calls happen from
// the actor's own goroutine.
type Broadcaster interface {
	// Attach adds a connection to a room's recipient set.
	Attach(roomID string, c Conn)
	// Detach removes a connection from a room's recipient set.
	Detach(roomID, connID string)
	// SendTo delivers a frame to a single connection. Best effort.
	SendTo(connID string, data []byte)
	// Broadcast delivers a frame to every connection in the room except
	// excludeID. An empty excludeID excludes nobody. Best effort.
	Broadcast(roomID string, data []byte, excludeID string)
}
