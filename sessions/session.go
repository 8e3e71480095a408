package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/pkg/errors"

	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const sessionIDLength = 32 // bytes of entropy; 43 chars once URL-safe encoded

// Identity holds the upstream user metadata resolved once authentication
// completes.
type Identity struct {
	GID   string
	Name  string
	Email string
}

// ReauthRecord tracks interactive re-authentication attempts for the
// circuit breaker. FirstAttempt anchors the current window.
type ReauthRecord struct {
	FirstAttempt time.Time
	Count        int
}

// Session represents one authenticated desktop context.
//
// Field access is guarded by mu. The refresh gate is a separate capacity-1
// semaphore held only for the duration of a token refresh, so metadata
// lookups never block behind a slow upstream call.
type Session struct {
	mu sync.RWMutex

	id       string
	ownerRef string
	state    State

	accessToken    string
	refreshToken   string
	tokenExpiresAt time.Time

	identity Identity

	createdAt  time.Time
	lastUsedAt time.Time

	retryCount int
	reauth     ReauthRecord

	refreshGate chan struct{}
	refreshing  bool
}

// NewID generates a unique, URL-safe session identifier with 256 bits of
// entropy.
func NewID() (string, error) {
	b := make([]byte, sessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[NewID] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// New creates a session in the pending state for the given desktop instance.
func New(ownerRef string) (*Session, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	now := NowTimeFunc()
	return &Session{
		id:          id,
		ownerRef:    ownerRef,
		state:       StatePending,
		createdAt:   now,
		lastUsedAt:  now,
		refreshGate: make(chan struct{}, 1),
	}, nil
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) OwnerRef() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerRef
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// Touch updates the last-used timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = NowTimeFunc()
}

// transition applies a state change, rejecting illegal edges. Callers must
// hold s.mu. Every transition updates lastUsedAt except the purge sweep.
func (s *Session) transition(to State) error {
	if !CanTransition(s.state, to) {
		return errors.Wrapf(brokererrors.ErrInvalidTransition, "[Session.transition] %s -> %s", s.state, to)
	}
	s.state = to
	if to != StatePurged {
		s.lastUsedAt = NowTimeFunc()
	}
	return nil
}

// Activate stores the initial token material and identity after the
// authorization callback completes. Only legal from the pending state.
func (s *Session) Activate(accessToken, refreshToken string, expiresAt time.Time, identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePending {
		return errors.Wrapf(brokererrors.ErrInvalidTransition, "[Session.Activate] state %s", s.state)
	}
	if err := s.transition(StateActive); err != nil {
		return err
	}
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.tokenExpiresAt = expiresAt
	s.identity = identity
	s.retryCount = 0
	return nil
}

// ReplaceTokens installs a freshly refreshed token pair, reactivating an
// expired session. Invoked by the refresh coordinator while it holds the
// refresh gate.
func (s *Session) ReplaceTokens(accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateExpired {
		if err := s.transition(StateActive); err != nil {
			return err
		}
	} else if s.state != StateActive {
		return errors.Wrapf(brokererrors.ErrInvalidTransition, "[Session.ReplaceTokens] state %s", s.state)
	} else {
		s.lastUsedAt = NowTimeFunc()
	}
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.tokenExpiresAt = expiresAt
	s.retryCount = 0
	return nil
}

// MarkExpired flags an active session whose access token passed the expiry
// buffer. Lazily invoked by accessors; a no-op if already expired.
func (s *Session) MarkExpired() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateExpired {
		return nil
	}
	return s.transition(StateExpired)
}

// Revoke moves the session to the terminal revoked state and drops its
// token material. Revoking an already revoked session is a no-op.
func (s *Session) Revoke() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRevoked {
		return nil
	}
	if err := s.transition(StateRevoked); err != nil {
		return err
	}
	s.accessToken = ""
	s.refreshToken = ""
	s.tokenExpiresAt = time.Time{}
	return nil
}

// Purge moves the session to the terminal purged state, dropping all token
// material. Only the sweeper calls this.
func (s *Session) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StatePurged {
		return nil
	}
	if err := s.transition(StatePurged); err != nil {
		return err
	}
	s.accessToken = ""
	s.refreshToken = ""
	s.tokenExpiresAt = time.Time{}
	return nil
}

// Tokens returns the current access and refresh token pair.
func (s *Session) Tokens() (accessToken, refreshToken string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *Session) TokenExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenExpiresAt
}

func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// SetIdentity refreshes the resolved user metadata after an interactive
// re-authentication.
func (s *Session) SetIdentity(identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// NeedsRefresh reports whether the access token is within the expiry buffer.
// The boundary is inclusive: a token exactly buffer away from expiry is
// treated as needing refresh.
func (s *Session) NeedsRefresh(buffer time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokenExpiresAt.IsZero() {
		return true
	}
	return !NowTimeFunc().Before(s.tokenExpiresAt.Add(-buffer))
}

// ValidToken returns the access token if it is still valid beyond the
// expiry buffer. This is the lock-free fast path used by the coordinator.
func (s *Session) ValidToken(buffer time.Duration) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateActive && s.state != StateExpired {
		return "", false
	}
	if s.accessToken == "" || s.tokenExpiresAt.IsZero() {
		return "", false
	}
	if !NowTimeFunc().Before(s.tokenExpiresAt.Add(-buffer)) {
		return "", false
	}
	return s.accessToken, true
}

// AcquireRefresh takes the per-session refresh gate, waiting at most the
// given timeout. The gate serializes concurrent refresh attempts so at most
// one upstream refresh is in flight per session.
func (s *Session) AcquireRefresh(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.refreshGate <- struct{}{}:
		return nil
	case <-timer.C:
		return errors.Wrap(brokererrors.ErrRefreshTimeout, "[Session.AcquireRefresh] lock wait")
	case <-ctx.Done():
		return errors.Wrap(brokererrors.ErrRefreshTimeout, "[Session.AcquireRefresh] context cancelled")
	}
}

// ReleaseRefresh releases the refresh gate.
func (s *Session) ReleaseRefresh() {
	select {
	case <-s.refreshGate:
	default:
		// Releasing an unheld gate indicates a coordinator bug; do not block.
	}
}

// SetRefreshing toggles the observable refresh-in-progress flag. The sweeper
// skips sessions whose flag is set.
func (s *Session) SetRefreshing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = v
}

func (s *Session) IsRefreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// RecordRetry increments the tool-call retry counter and reports whether
// another attempt is permitted under the ceiling.
func (s *Session) RecordRetry(ceiling int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.retryCount++
	return s.retryCount <= ceiling
}

func (s *Session) RetryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retryCount
}

// UpdateReauth runs f against the re-authentication attempt record under
// the session lock and returns f's result. The circuit breaker uses this to
// read and mutate the record atomically.
func (s *Session) UpdateReauth(f func(rec *ReauthRecord) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(&s.reauth)
}

// Snapshot is a read-only projection of a session for diagnostics and
// status endpoints. Building one never mutates state or triggers a refresh.
type Snapshot struct {
	SessionID      string    `json:"session_id"`
	OwnerRef       string    `json:"desktop_instance_id"`
	State          State     `json:"state"`
	CreatedAt      time.Time `json:"created_at"`
	LastUsedAt     time.Time `json:"last_used_at"`
	User           *Identity `json:"user,omitempty"`
	TokenExpired   bool      `json:"token_expired"`
	NeedsRefresh   bool      `json:"needs_refresh"`
	RetryCount     int       `json:"retry_count"`
	ReauthAttempts int       `json:"re_auth_attempts"`
}

// Snapshot builds a point-in-time view of the session.
func (s *Session) Snapshot(buffer time.Duration) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := NowTimeFunc()
	expired := s.tokenExpiresAt.IsZero() || !now.Before(s.tokenExpiresAt.Add(-buffer))

	snap := Snapshot{
		SessionID:      s.id,
		OwnerRef:       s.ownerRef,
		State:          s.state,
		CreatedAt:      s.createdAt,
		LastUsedAt:     s.lastUsedAt,
		TokenExpired:   expired,
		NeedsRefresh:   expired && s.refreshToken != "",
		RetryCount:     s.retryCount,
		ReauthAttempts: s.reauth.Count,
	}
	if s.identity.GID != "" {
		ident := s.identity
		snap.User = &ident
	}
	return snap
}
