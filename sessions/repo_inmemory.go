package sessions

import (
	"sync"

	"github.com/pkg/errors"

	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryRepo creates a new in-memory session repository.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*Session),
	}
}

var _ Repo = (*InMemoryRepo)(nil)

// Upsert creates or updates a session.
func (r *InMemoryRepo) Upsert(session *Session) error {
	if session == nil {
		return errors.New("[InMemoryRepo.Upsert] session is required")
	}
	if session.ID() == "" {
		return errors.New("[InMemoryRepo.Upsert] session ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID()] = session
	return nil
}

// Get retrieves a session by ID.
func (r *InMemoryRepo) Get(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, errors.New("[InMemoryRepo.Get] sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, brokererrors.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("[InMemoryRepo.Delete] sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}

// List returns all stored sessions.
func (r *InMemoryRepo) List() ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out, nil
}
