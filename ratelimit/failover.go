package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCounter uses primary until it errors, then serves from fallback
// and retries primary once per recoveryInterval.
type FailoverCounter struct {
	primary  Counter
	fallback Counter
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverCounter(primary, fallback Counter, logger *zerolog.Logger) *FailoverCounter {
	return &FailoverCounter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverCounter) markDown(err error) {
	f.logger.Error().Err(err).Msg("Primary rate limit store failed, falling back to memory")
	f.isDown.Store(true)
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

// usePrimary reports whether the primary should be tried for this call
func (f *FailoverCounter) usePrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) > recoveryInterval {
		f.lastCheck = time.Now()
		return true
	}
	return false
}

func (f *FailoverCounter) Count(ctx context.Context, key string) (int64, error) {
	if f.usePrimary() {
		count, err := f.primary.Count(ctx, key)
		if err == nil {
			f.isDown.Store(false)
			return count, nil
		}
		f.markDown(err)
	}
	return f.fallback.Count(ctx, key)
}

func (f *FailoverCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if f.usePrimary() {
		count, err := f.primary.Incr(ctx, key, window)
		if err == nil {
			f.isDown.Store(false)
			return count, nil
		}
		f.markDown(err)
	}
	return f.fallback.Incr(ctx, key, window)
}
