// Package ratelimit paces outbound requests through one shared token bucket.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/codex-k8s/aha-mcp-server/internal/clock"
)

// Limiter spaces consecutive acquisitions so the aggregate call rate stays
// under the configured ceiling. It is safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
	clock   clock.Clock
}

// New creates a limiter that refills one token every delay with room for
// burst tokens. A non-positive delay disables pacing.
func New(delay time.Duration, burst int, clk clock.Clock) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		clock:   clk,
	}
}

// Acquire blocks until the next request may be issued and reports how long
// it waited. It only fails when ctx ends; the pending reservation is then
// returned to the bucket.
func (l *Limiter) Acquire(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := l.clock.Now()
	reservation := l.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return 0, errors.New("rate limiter reservation rejected")
	}
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return 0, nil
	}
	if err := l.clock.Sleep(ctx, delay); err != nil {
		reservation.CancelAt(l.clock.Now())
		return 0, err
	}
	return delay, nil
}
