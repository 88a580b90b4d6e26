package clock

import (
	"context"
	"time"
)

// Clock abstracts time so pacing and backoff can be tested deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep suspends the caller for d or until ctx ends.
	Sleep(ctx context.Context, d time.Duration) error
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current UTC time.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Sleep waits for d without blocking other goroutines and returns ctx.Err()
// when the context ends first.
func (Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
