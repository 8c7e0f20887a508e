package ratelimit

import (
	"context"
	"time"
)

// Counter keeps fixed-window hit counts per key.
type Counter interface {
	// Count returns the hits recorded for key in the current window.
	Count(ctx context.Context, key string) (int64, error)
	// Incr records one hit for key. The window starts with the first hit.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
