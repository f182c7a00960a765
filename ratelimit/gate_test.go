package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pantrymap/go-pantrymap/ratelimit"
	"github.com/stretchr/testify/require"
)

func TestReserveSpacing(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	g := ratelimit.NewGate(2*time.Second, mock)
	require.Equal(t, 2*time.Second, g.Interval())

	d, err := g.Reserve()
	require.NoError(t, err)
	require.Zero(t, d)

	// Back to back request waits for the full interval.
	d, err = g.Reserve()
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, d)

	// Third request queues behind the second.
	mock.Add(500 * time.Millisecond)
	d, err = g.Reserve()
	require.NoError(t, err)
	require.Equal(t, 3500*time.Millisecond, d)

	// After a long idle period there is no wait, and no burst builds up.
	mock.Add(time.Minute)
	d, err = g.Reserve()
	require.NoError(t, err)
	require.Zero(t, d)
	d, err = g.Reserve()
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, d)
}

func TestWaitRealClock(t *testing.T) {
	const interval = 100 * time.Millisecond
	g := ratelimit.NewGate(interval, nil)

	var issued []time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Wait(context.Background()))
		issued = append(issued, time.Now())
	}
	for i := 1; i < len(issued); i++ {
		require.GreaterOrEqual(t, issued[i].Sub(issued[i-1]), interval-5*time.Millisecond)
	}
}

func TestWaitCanceled(t *testing.T) {
	g := ratelimit.NewGate(time.Hour, nil)
	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestZeroInterval(t *testing.T) {
	g := ratelimit.NewGate(0, nil)
	for i := 0; i < 10; i++ {
		d, err := g.Reserve()
		require.NoError(t, err)
		require.Zero(t, d)
	}
}
