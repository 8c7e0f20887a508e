package worker

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// DefaultEmailRetry is used for any RetryPolicy field left at zero.
var DefaultEmailRetry = RetryPolicy{
	Attempts: 5,
	Base:     2 * time.Second,
	Cap:      time.Minute,
	Factor:   2,
}

// RetryPolicy spaces out email delivery attempts with capped exponential
// backoff. Jitter spreads each delay by up to that fraction in either direction.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Cap      time.Duration
	Factor   float64
	Jitter   float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultEmailRetry.Attempts
	}
	if p.Base <= 0 {
		p.Base = DefaultEmailRetry.Base
	}
	if p.Cap <= 0 {
		p.Cap = DefaultEmailRetry.Cap
	}
	if p.Factor < 1 {
		p.Factor = DefaultEmailRetry.Factor
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0
	}
	return p
}

// Exhausted reports whether no attempt follows the given one (1-based).
func (p RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= p.withDefaults().Attempts
}

// Backoff is the pause after a failed attempt (1-based), never above Cap.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.Base) * math.Pow(p.Factor, float64(attempt-1))
	if p.Jitter > 0 {
		d += d * p.Jitter * (2*rand.Float64() - 1)
	}
	if d > float64(p.Cap) {
		return p.Cap
	}
	return time.Duration(d)
}

// Wait sleeps for Backoff(attempt) or until ctx is done.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Backoff(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
