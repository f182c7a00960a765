// Package ratelimit spaces outbound requests to rate-limited services.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

// ErrReservation is returned when the limiter cannot grant a reservation.
var ErrReservation = errors.New("rate limiter cannot reserve request")

// Gate enforces a minimum interval between the issue times of successive
// requests. A single Gate is shared by every caller that must respect the
// same upstream limit.
type Gate struct {
	clock    clock.Clock
	interval time.Duration
	limiter  *rate.Limiter
}

// NewGate creates a Gate that allows one request per interval. A nil clk
// uses the system clock.
func NewGate(interval time.Duration, clk clock.Clock) *Gate {
	if clk == nil {
		clk = clock.New()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Gate{
		clock:    clk,
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Interval returns the minimum spacing between requests.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Reserve claims the next request slot and returns how long the caller must
// wait before issuing its request.
func (g *Gate) Reserve() (time.Duration, error) {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return 0, ErrReservation
	}
	return r.DelayFrom(now), nil
}

// Wait blocks until the caller may issue its request. If ctx is done first,
// the reserved slot is returned to the limiter and the context error is
// returned.
func (g *Gate) Wait(ctx context.Context) error {
	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return ErrReservation
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	timer := g.clock.Timer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.CancelAt(g.clock.Now())
		return ctx.Err()
	}
}
