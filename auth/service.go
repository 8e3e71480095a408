package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/taskbridge/go-asana-broker/internal/config"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
	"github.com/taskbridge/go-asana-broker/sessions"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Service is the authentication facade: the single entry point tool-call
// handlers use to resolve valid access tokens for a tenant, with refresh,
// circuit breaking and retry accounting applied behind it.
type Service struct {
	repo         sessions.Repo
	upstream     Upstream
	coordinator  *Coordinator
	breaker      Breaker
	buffer       time.Duration
	retryCeiling int

	mu     sync.Mutex
	owners map[string]string // desktop instance ID -> session ID
}

// ServiceOption modifies the Service instance.
type ServiceOption func(*Service)

// WithCoordinator replaces the default refresh coordinator (primarily for
// testing).
func WithCoordinator(c *Coordinator) ServiceOption {
	return func(s *Service) {
		s.coordinator = c
	}
}

// NewService initialises the facade with required dependencies.
func NewService(repo sessions.Repo, upstream Upstream, cfg config.SessionConfig, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] sessions repo is required")
	}
	if upstream == nil {
		return nil, errors.New("[NewService] upstream is required")
	}

	svc := &Service{
		repo:     repo,
		upstream: upstream,
		coordinator: NewCoordinator(
			upstream,
			cfg.GetTokenExpiryBuffer(),
			cfg.GetRefreshLockTimeout(),
			cfg.GetRefreshRetries(),
			cfg.GetRefreshRetryBackoff(),
		),
		breaker: Breaker{
			MaxAttempts: cfg.GetReauthMaxAttempts(),
			Window:      cfg.GetReauthWindow(),
		},
		buffer:       cfg.GetTokenExpiryBuffer(),
		retryCeiling: cfg.GetToolRetryCeiling(),
		owners:       make(map[string]string),
	}

	for _, opt := range options {
		opt(svc)
	}
	return svc, nil
}

// CreateSession creates a pending session for a desktop instance and
// returns its identifier with the upstream authorization URL.
//
// At most one session exists per desktop instance: creating a session for
// an owner that already has one supersedes (revokes) the previous session,
// so a restarted desktop always ends up with a clean slate.
func (s *Service) CreateSession(ownerRef string) (sessionID, authorizationURL string, err error) {
	if ownerRef == "" {
		return "", "", errors.New("[Service.CreateSession] ownerRef is required")
	}

	session, err := sessions.New(ownerRef)
	if err != nil {
		return "", "", errors.Wrap(err, "[Service.CreateSession] new session")
	}

	s.mu.Lock()
	if oldID, ok := s.owners[ownerRef]; ok {
		if old, err := s.repo.Get(oldID); err == nil {
			if err := old.Revoke(); err != nil {
				log.Warn().Err(err).Str("session_id", sessions.Abbrev(oldID)).Msg("could not revoke superseded session")
			} else {
				log.Info().Str("session_id", sessions.Abbrev(oldID)).Str("owner", ownerRef).Msg("revoked superseded session")
			}
		}
	}
	s.owners[ownerRef] = session.ID()
	s.mu.Unlock()

	if err := s.repo.Upsert(session); err != nil {
		return "", "", errors.Wrap(err, "[Service.CreateSession] repo.Upsert")
	}

	// The session ID doubles as the OAuth state parameter, which lets the
	// callback route the token set back to the right session.
	authURL := s.upstream.AuthorizationURL(session.ID())

	log.Info().Str("session_id", sessions.Abbrev(session.ID())).Str("owner", ownerRef).Msg("created session")
	return session.ID(), authURL, nil
}

// HandleCallback completes the authorization flow: it exchanges the code,
// resolves the user's identity and stores the token material.
func (s *Service) HandleCallback(ctx context.Context, sessionID, code string) (sessions.Snapshot, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return sessions.Snapshot{}, err
	}

	tokenSet, err := s.upstream.Exchange(ctx, code, sessionID)
	if err != nil {
		return sessions.Snapshot{}, errors.Wrap(err, "[Service.HandleCallback] exchange")
	}

	identity := sessions.Identity(tokenSet.Identity)
	if identity.GID == "" {
		// Token response carried no user object; ask the identity endpoint.
		if who, err := s.upstream.WhoAmI(ctx, tokenSet.AccessToken); err == nil {
			identity = sessions.Identity(who)
		} else {
			log.Warn().Err(err).Str("session_id", sessions.Abbrev(sessionID)).Msg("identity lookup failed")
		}
	}

	switch session.State() {
	case sessions.StatePending:
		if err := session.Activate(tokenSet.AccessToken, tokenSet.RefreshToken, tokenSet.ExpiresAt, identity); err != nil {
			return sessions.Snapshot{}, err
		}
	case sessions.StateActive, sessions.StateExpired:
		// Interactive re-authentication of an existing session.
		if err := session.ReplaceTokens(tokenSet.AccessToken, tokenSet.RefreshToken, tokenSet.ExpiresAt); err != nil {
			return sessions.Snapshot{}, err
		}
		session.SetIdentity(identity)
	default:
		return sessions.Snapshot{}, errors.Wrapf(brokererrors.ErrInvalidTransition, "[Service.HandleCallback] state %s", session.State())
	}

	log.Info().Str("session_id", sessions.Abbrev(sessionID)).Str("user", identity.Name).Msg("authorization completed")
	return session.Snapshot(s.buffer), nil
}

// ResolveToken returns a valid access token for the session, refreshing it
// when needed. On a definitive refresh failure the circuit breaker decides
// whether the caller may be sent through interactive re-authentication.
func (s *Service) ResolveToken(ctx context.Context, sessionID string) (string, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return "", err
	}

	switch session.State() {
	case sessions.StateRevoked:
		return "", brokererrors.ErrSessionRevoked
	case sessions.StatePending:
		return "", brokererrors.ErrSessionPending
	}

	session.Touch()

	token, err := s.coordinator.EnsureValid(ctx, session)
	if err == nil {
		return token, nil
	}
	if !brokererrors.Is(err, brokererrors.ErrReauthRequired) {
		return "", err
	}

	// Escalation path: only re-auth requirements pass through the breaker.
	now := NowTimeFunc()
	var remaining time.Duration
	allowed := session.UpdateReauth(func(rec *sessions.ReauthRecord) bool {
		if s.breaker.Allow(rec, now) {
			return true
		}
		remaining = s.breaker.Remaining(rec, now)
		return false
	})
	if allowed {
		return "", err
	}
	log.Warn().Str("session_id", sessions.Abbrev(sessionID)).Dur("retry_after", remaining).Msg("re-auth circuit breaker open")
	return "", &brokererrors.TooManyAttemptsError{RetryAfter: remaining}
}

// RecordRetry increments the session's tool-call retry counter and reports
// whether another attempt after a re-auth cycle is permitted. Once it
// returns false the caller must surface a terminal error instead of
// looping.
func (s *Service) RecordRetry(sessionID string) bool {
	session, err := s.lookup(sessionID)
	if err != nil {
		return false
	}
	return session.RecordRetry(s.retryCeiling)
}

// AuthorizationURL rebuilds the authorization URL for an existing session,
// used when the caller is redirected into the interactive flow.
func (s *Service) AuthorizationURL(sessionID string) (string, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return "", err
	}
	if session.State().Terminal() {
		return "", brokererrors.ErrSessionRevoked
	}
	return s.upstream.AuthorizationURL(session.ID()), nil
}

// Revoke explicitly revokes a session and best-effort revokes its tokens
// upstream. Revoking twice is a no-op, not an error.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	accessToken, refreshToken := session.Tokens()
	if err := session.Revoke(); err != nil {
		return err
	}

	if accessToken != "" {
		_ = s.upstream.RevokeToken(ctx, accessToken)
	}
	if refreshToken != "" {
		_ = s.upstream.RevokeToken(ctx, refreshToken)
	}

	s.releaseOwner(session)
	log.Info().Str("session_id", sessions.Abbrev(sessionID)).Msg("revoked session")
	return nil
}

// Snapshot returns a read-only projection of one session for diagnostics.
// It never mutates state or triggers a refresh.
func (s *Service) Snapshot(sessionID string) (sessions.Snapshot, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return sessions.Snapshot{}, err
	}
	return session.Snapshot(s.buffer), nil
}

// Snapshots returns projections of every stored session.
func (s *Service) Snapshots() ([]sessions.Snapshot, error) {
	all, err := s.repo.List()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Snapshots] repo.List")
	}
	out := make([]sessions.Snapshot, 0, len(all))
	for _, session := range all {
		out = append(out, session.Snapshot(s.buffer))
	}
	return out, nil
}

// NewSweeper builds the periodic purge sweeper bound to this facade's
// owner index.
func (s *Service) NewSweeper(maxAge, interval time.Duration) *sessions.Sweeper {
	return sessions.NewSweeper(s.repo, maxAge, interval, s.releaseOwner)
}

// lookup fetches a session, mapping absent and purged sessions to
// ErrSessionNotFound.
func (s *Service) lookup(sessionID string) (*sessions.Session, error) {
	if sessionID == "" {
		return nil, brokererrors.ErrSessionNotFound
	}
	session, err := s.repo.Get(sessionID)
	if err != nil {
		return nil, brokererrors.ErrSessionNotFound
	}
	if session.State() == sessions.StatePurged {
		return nil, brokererrors.ErrSessionNotFound
	}
	return session, nil
}

// releaseOwner drops the owner index entry if it still points at this
// session.
func (s *Service) releaseOwner(session *sessions.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[session.OwnerRef()] == session.ID() {
		delete(s.owners, session.OwnerRef())
	}
}
