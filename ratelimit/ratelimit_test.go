package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskbridge/go-asana-broker/ratelimit"
)

func TestAcquireUnderLimitIsImmediate(t *testing.T) {
	l := ratelimit.New(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	require.Equal(t, 0, l.Remaining())
}

func TestAcquireBlocksWhenFull(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWindowSlides(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	ratelimit.NowTimeFunc = func() time.Time { return now }
	defer func() { ratelimit.NowTimeFunc = time.Now }()

	l := ratelimit.New(2, time.Minute)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	require.Equal(t, 0, l.Remaining())

	// Half a window later nothing has been freed.
	now = base.Add(30 * time.Second)
	require.Equal(t, 0, l.Remaining())

	// Once the first entries exit the window the slots come back.
	now = base.Add(61 * time.Second)
	require.Equal(t, 2, l.Remaining())
	require.NoError(t, l.Acquire(ctx))
	require.Equal(t, 1, l.Remaining())
}

func TestDefaultsAppliedForInvalidArguments(t *testing.T) {
	l := ratelimit.New(0, 0)
	require.Equal(t, 1, l.Remaining())
}
