package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/taskbridge/go-asana-broker/asana"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
	"github.com/taskbridge/go-asana-broker/sessions"
)

// Upstream is the slice of the OAuth client the coordinator and facade
// consume. *asana.OAuthClient satisfies it.
type Upstream interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code, state string) (asana.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (asana.TokenSet, error)
	RevokeToken(ctx context.Context, token string) error
	WhoAmI(ctx context.Context, accessToken string) (asana.Identity, error)
}

// Coordinator produces a currently valid access token for a session,
// refreshing at most once concurrently per session.
//
// Without the per-session gate, N concurrent expired-token callers would
// each issue a refresh, racing against the upstream's single-use refresh
// token rotation; the losers would see spurious rejections. The double
// check after acquiring the gate keeps the common already-valid path
// lock-free while avoiding redundant refreshes.
type Coordinator struct {
	upstream    Upstream
	buffer      time.Duration
	lockTimeout time.Duration
	retries     int
	backoff     time.Duration
}

// NewCoordinator wires a coordinator against the upstream token endpoint.
func NewCoordinator(upstream Upstream, buffer, lockTimeout time.Duration, retries int, backoff time.Duration) *Coordinator {
	return &Coordinator{
		upstream:    upstream,
		buffer:      buffer,
		lockTimeout: lockTimeout,
		retries:     retries,
		backoff:     backoff,
	}
}

// EnsureValid returns an access token valid beyond the expiry buffer,
// refreshing it first when needed. Callers competing for an in-flight
// refresh are serialized behind the session's gate with a bounded wait.
func (c *Coordinator) EnsureValid(ctx context.Context, s *sessions.Session) (string, error) {
	// Fast path: no lock when the token is comfortably valid.
	if token, ok := s.ValidToken(c.buffer); ok {
		return token, nil
	}

	if err := s.AcquireRefresh(ctx, c.lockTimeout); err != nil {
		return "", err
	}
	defer s.ReleaseRefresh()

	// Another caller may have refreshed while we waited on the gate.
	if token, ok := s.ValidToken(c.buffer); ok {
		return token, nil
	}

	_, refreshToken := s.Tokens()
	if refreshToken == "" {
		return "", errors.Wrap(brokererrors.ErrReauthRequired, "[Coordinator.EnsureValid] no refresh token")
	}

	// Lazy expiry detection: the state machine learns the token crossed
	// the buffer the moment an accessor notices.
	if s.State() == sessions.StateActive {
		if err := s.MarkExpired(); err != nil {
			return "", errors.Wrap(err, "[Coordinator.EnsureValid] mark expired")
		}
	}

	s.SetRefreshing(true)
	defer s.SetRefreshing(false)

	tokenSet, err := c.refreshWithRetry(ctx, s.ID(), refreshToken)
	if err != nil {
		if brokererrors.Is(err, brokererrors.ErrUpstreamRefreshRejected) {
			// Definitive rejection: session stays expired, escalate.
			log.Warn().Str("session_id", sessions.Abbrev(s.ID())).Msg("refresh token rejected upstream")
			return "", errors.Wrap(brokererrors.ErrReauthRequired, "[Coordinator.EnsureValid] refresh rejected")
		}
		return "", err
	}

	newRefreshToken := tokenSet.RefreshToken
	if newRefreshToken == "" {
		// Upstream did not rotate the refresh token; keep the current one.
		newRefreshToken = refreshToken
	}
	if err := s.ReplaceTokens(tokenSet.AccessToken, newRefreshToken, tokenSet.ExpiresAt); err != nil {
		return "", errors.Wrap(err, "[Coordinator.EnsureValid] replace tokens")
	}

	log.Info().Str("session_id", sessions.Abbrev(s.ID())).Time("expires_at", tokenSet.ExpiresAt).Msg("refreshed access token")
	return tokenSet.AccessToken, nil
}

// refreshWithRetry retries transient upstream failures a bounded number of
// times with linear backoff. Definitive rejections are never retried.
func (c *Coordinator) refreshWithRetry(ctx context.Context, sessionID, refreshToken string) (asana.TokenSet, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(time.Duration(attempt) * c.backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return asana.TokenSet{}, errors.Wrap(brokererrors.ErrRefreshTimeout, "[Coordinator.refreshWithRetry] context cancelled")
			}
		}

		tokenSet, err := c.upstream.Refresh(ctx, refreshToken)
		if err == nil {
			return tokenSet, nil
		}
		if brokererrors.Is(err, brokererrors.ErrUpstreamRefreshRejected) {
			return asana.TokenSet{}, err
		}
		lastErr = err
		log.Warn().Err(err).Str("session_id", sessions.Abbrev(sessionID)).Int("attempt", attempt+1).Msg("transient refresh failure")
	}
	return asana.TokenSet{}, errors.Wrapf(brokererrors.ErrRefreshTimeout, "[Coordinator.refreshWithRetry] retries exhausted: %v", lastErr)
}
