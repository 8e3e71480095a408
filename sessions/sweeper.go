package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically purges sessions that exceeded the maximum age,
// regardless of state. It runs on its own interval, never inline with a
// request path, and skips sessions with a refresh in flight so a purge can
// never corrupt an ongoing token update.
type Sweeper struct {
	repo     Repo
	maxAge   time.Duration
	interval time.Duration
	onPurge  func(*Session)
}

// NewSweeper creates a sweeper. onPurge, if non-nil, is invoked for every
// purged session after it has been removed from the repository (used to
// drop owner-reference indexes).
func NewSweeper(repo Repo, maxAge, interval time.Duration, onPurge func(*Session)) *Sweeper {
	return &Sweeper{
		repo:     repo,
		maxAge:   maxAge,
		interval: interval,
		onPurge:  onPurge,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (sw *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := sw.SweepOnce(); err != nil {
				log.Error().Err(err).Msg("session sweep failed")
			}
		}
	}
}

// SweepOnce scans all sessions and purges those older than the maximum age,
// freeing their storage. Returns the number of purged sessions.
func (sw *Sweeper) SweepOnce() (int, error) {
	all, err := sw.repo.List()
	if err != nil {
		return 0, errors.Wrap(err, "[Sweeper.SweepOnce] repo.List")
	}

	cutoff := NowTimeFunc().Add(-sw.maxAge)
	purged := 0
	for _, s := range all {
		if s.CreatedAt().After(cutoff) {
			continue
		}
		if s.IsRefreshing() {
			// A refresh holds the session's gate right now; pick it up on
			// the next sweep instead of yanking state out from under it.
			continue
		}
		if err := s.Purge(); err != nil {
			log.Warn().Err(err).Str("session_id", Abbrev(s.ID())).Msg("skipping unpurgeable session")
			continue
		}
		if err := sw.repo.Delete(s.ID()); err != nil {
			return purged, errors.Wrap(err, "[Sweeper.SweepOnce] repo.Delete")
		}
		if sw.onPurge != nil {
			sw.onPurge(s)
		}
		purged++
	}

	if purged > 0 {
		log.Info().Int("purged", purged).Msg("purged old sessions")
	}
	return purged, nil
}

// Abbrev shortens a session identifier for log output.
func Abbrev(sessionID string) string {
	if len(sessionID) <= 8 {
		return sessionID
	}
	return sessionID[:8] + "..."
}
