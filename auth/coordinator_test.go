package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/taskbridge/go-asana-broker/asana"
	"github.com/taskbridge/go-asana-broker/auth"
	brokererrors "github.com/taskbridge/go-asana-broker/internal/errors"
	"github.com/taskbridge/go-asana-broker/sessions"
)

const (
	coordBuffer      = 5 * time.Minute
	coordLockTimeout = 2 * time.Second
)

func newCoordinator(upstream auth.Upstream) *auth.Coordinator {
	return auth.NewCoordinator(upstream, coordBuffer, coordLockTimeout, 2, 10*time.Millisecond)
}

func activeSession(t *testing.T, expiresAt time.Time) *sessions.Session {
	t.Helper()
	s, err := sessions.New("desktop-1")
	require.NoError(t, err)
	require.NoError(t, s.Activate("old-access", "old-refresh", expiresAt, sessions.Identity{GID: "u1"}))
	return s
}

func TestEnsureValidFastPathSkipsRefresh(t *testing.T) {
	upstream := newFakeUpstream()
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(time.Hour))

	token, err := c.EnsureValid(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, "old-access", token)
	require.Equal(t, 0, upstream.refreshCount())
}

func TestEnsureValidRefreshesExpiredToken(t *testing.T) {
	upstream := newFakeUpstream()
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(-time.Minute))

	token, err := c.EnsureValid(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, "new-access", token)
	require.Equal(t, 1, upstream.refreshCount())
	require.Equal(t, sessions.StateActive, s.State())

	_, refresh := s.Tokens()
	require.Equal(t, "new-refresh", refresh)
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.refreshFn = func(refreshToken string) (asana.TokenSet, error) {
		time.Sleep(50 * time.Millisecond)
		return validTokenSet(), nil
	}
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(-time.Minute))

	const callers = 10
	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = c.EnsureValid(context.Background(), s)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "new-access", tokens[i])
	}
	require.Equal(t, 1, upstream.refreshCount())
}

func TestTransientFailureIsRetried(t *testing.T) {
	upstream := newFakeUpstream()
	failures := 1
	upstream.refreshFn = func(refreshToken string) (asana.TokenSet, error) {
		if failures > 0 {
			failures--
			return asana.TokenSet{}, errors.New("upstream 502")
		}
		return validTokenSet(), nil
	}
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(-time.Minute))

	token, err := c.EnsureValid(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, "new-access", token)
	require.Equal(t, 2, upstream.refreshCount())
}

func TestExhaustedRetriesSurfaceAsRefreshTimeout(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.refreshFn = func(refreshToken string) (asana.TokenSet, error) {
		return asana.TokenSet{}, errors.New("upstream 502")
	}
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(-time.Minute))

	_, err := c.EnsureValid(context.Background(), s)
	require.ErrorIs(t, err, brokererrors.ErrRefreshTimeout)
	require.Equal(t, 3, upstream.refreshCount()) // initial attempt plus two retries
}

func TestDefinitiveRejectionIsNeverRetried(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.refreshFn = func(refreshToken string) (asana.TokenSet, error) {
		return asana.TokenSet{}, errors.Wrap(brokererrors.ErrUpstreamRefreshRejected, "invalid_grant")
	}
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(-time.Minute))

	_, err := c.EnsureValid(context.Background(), s)
	require.ErrorIs(t, err, brokererrors.ErrReauthRequired)
	require.Equal(t, 1, upstream.refreshCount())
	require.Equal(t, sessions.StateExpired, s.State())
}

func TestMissingRefreshTokenEscalatesImmediately(t *testing.T) {
	upstream := newFakeUpstream()
	c := newCoordinator(upstream)

	s, err := sessions.New("desktop-1")
	require.NoError(t, err)
	require.NoError(t, s.Activate("old-access", "", time.Now().Add(-time.Minute), sessions.Identity{}))

	_, err = c.EnsureValid(context.Background(), s)
	require.ErrorIs(t, err, brokererrors.ErrReauthRequired)
	require.Equal(t, 0, upstream.refreshCount())
}

func TestRefreshTokenKeptWhenUpstreamDoesNotRotate(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.refreshFn = func(refreshToken string) (asana.TokenSet, error) {
		ts := validTokenSet()
		ts.RefreshToken = ""
		return ts, nil
	}
	c := newCoordinator(upstream)
	s := activeSession(t, time.Now().Add(-time.Minute))

	_, err := c.EnsureValid(context.Background(), s)
	require.NoError(t, err)

	_, refresh := s.Tokens()
	require.Equal(t, "old-refresh", refresh)
}

func TestGateWaitTimesOut(t *testing.T) {
	upstream := newFakeUpstream()
	c := auth.NewCoordinator(upstream, coordBuffer, 50*time.Millisecond, 0, time.Millisecond)
	s := activeSession(t, time.Now().Add(-time.Minute))

	// Simulate a stuck refresh holding the gate.
	require.NoError(t, s.AcquireRefresh(context.Background(), time.Second))
	defer s.ReleaseRefresh()

	_, err := c.EnsureValid(context.Background(), s)
	require.ErrorIs(t, err, brokererrors.ErrRefreshTimeout)
	require.Equal(t, 0, upstream.refreshCount())
}
