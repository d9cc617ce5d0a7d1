package room

// SessionRegistry tracks which connection announced which display name.
// Names are client-asserted labels, not identities: the same name may be
// present on several connections at once, and each connection leaves
// independently. Presence is live-only and never persisted.
//
// Not safe for concurrent use; confined to the owning actor's goroutine.
type SessionRegistry struct {
	names map[string]string // connID -> display name
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{names: make(map[string]string)}
}

// Join records the display name announced on a connection.
func (s *SessionRegistry) Join(connID, name string) {
	s.names[connID] = name
}

// Leave removes the connection and returns the name it had announced, if
// any. A connection that never announced itself yields ok=false.
func (s *SessionRegistry) Leave(connID string) (string, bool) {
	name, ok := s.names[connID]
	if ok {
		delete(s.names, connID)
	}
	return name, ok
}

// Len reports the number of announced connections.
func (s *SessionRegistry) Len() int {
	return len(s.names)
}
