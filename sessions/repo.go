package sessions

// Repo defines the key-value storage contract for sessions. A durable
// backend can be substituted as long as it preserves atomic read-modify-write
// on the token fields during refresh; the in-memory implementation achieves
// this by sharing *Session values guarded by their own locks.
type Repo interface {
	// Upsert creates or updates a session keyed by its identifier
	Upsert(session *Session) error

	// Get retrieves a session by ID
	Get(sessionID string) (*Session, error)

	// Delete removes a session by ID
	Delete(sessionID string) error

	// List returns all stored sessions
	List() ([]*Session, error)
}
