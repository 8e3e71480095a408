package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskbridge/go-asana-broker/sessions"
)

func TestSweepPurgesOldSessions(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.NowTimeFunc = func() time.Time { return base }
	defer func() { sessions.NowTimeFunc = time.Now }()

	repo := sessions.NewInMemoryRepo()

	old, err := sessions.New("desktop-old")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(old))

	sessions.NowTimeFunc = func() time.Time { return base.Add(31 * 24 * time.Hour) }

	fresh, err := sessions.New("desktop-fresh")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(fresh))

	var purged []*sessions.Session
	sw := sessions.NewSweeper(repo, 30*24*time.Hour, time.Hour, func(s *sessions.Session) {
		purged = append(purged, s)
	})

	count, err := sw.SweepOnce()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, purged, 1)
	require.Equal(t, old.ID(), purged[0].ID())
	require.Equal(t, sessions.StatePurged, old.State())

	_, err = repo.Get(old.ID())
	require.Error(t, err)
	_, err = repo.Get(fresh.ID())
	require.NoError(t, err)
}

func TestSweepSkipsRefreshingSessions(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.NowTimeFunc = func() time.Time { return base }
	defer func() { sessions.NowTimeFunc = time.Now }()

	repo := sessions.NewInMemoryRepo()
	s, err := sessions.New("desktop-1")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(s))

	sessions.NowTimeFunc = func() time.Time { return base.Add(31 * 24 * time.Hour) }
	s.SetRefreshing(true)

	sw := sessions.NewSweeper(repo, 30*24*time.Hour, time.Hour, nil)
	count, err := sw.SweepOnce()
	require.NoError(t, err)
	require.Equal(t, 0, count)

	// Refresh finished; the next sweep picks it up.
	s.SetRefreshing(false)
	count, err = sw.SweepOnce()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSweepPurgesRegardlessOfState(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sessions.NowTimeFunc = func() time.Time { return base }
	defer func() { sessions.NowTimeFunc = time.Now }()

	repo := sessions.NewInMemoryRepo()

	active, err := sessions.New("desktop-a")
	require.NoError(t, err)
	require.NoError(t, active.Activate("a", "r", base.Add(time.Hour), sessions.Identity{}))
	require.NoError(t, repo.Upsert(active))

	revoked, err := sessions.New("desktop-b")
	require.NoError(t, err)
	require.NoError(t, revoked.Revoke())
	require.NoError(t, repo.Upsert(revoked))

	sessions.NowTimeFunc = func() time.Time { return base.Add(31 * 24 * time.Hour) }

	sw := sessions.NewSweeper(repo, 30*24*time.Hour, time.Hour, nil)
	count, err := sw.SweepOnce()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestAbbrev(t *testing.T) {
	require.Equal(t, "short", sessions.Abbrev("short"))
	require.Equal(t, "abcdefgh...", sessions.Abbrev("abcdefghijklmnop"))
}
