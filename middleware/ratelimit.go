package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"travlr/metrics"
	"travlr/ratelimit"
	"travlr/utils"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// clientIP keys limiters on the socket address. Forwarding headers are
// client-controlled and are never used here.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Throttle applies a per-client token bucket to every request
type Throttle struct {
	limiters sync.Map
	rps      float64
	burst    int
}

func NewThrottle(rps float64, burst int) *Throttle {
	if burst <= 0 {
		burst = 5
	}
	return &Throttle{rps: rps, burst: burst}
}

func (t *Throttle) getLimiter(key string) *rate.Limiter {
	if v, ok := t.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	lim := rate.NewLimiter(rate.Limit(t.rps), t.burst)
	actual, loaded := t.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.getLimiter(clientIP(r)).Allow() {
			metrics.IncRateLimited("throttle")
			utils.WriteError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AttemptLimiter counts failed responses per client in a fixed window and
// rejects further attempts once Max is reached. Successful responses are not counted.
type AttemptLimiter struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	Counter ratelimit.Counter
	Logger  *zerolog.Logger
}

func (l *AttemptLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.Name + ":" + clientIP(r)

		used, err := l.Counter.Count(r.Context(), key)
		if err != nil {
			l.Logger.Error().Err(err).Str("limiter", l.Name).Msg("rate limit lookup failed")
			used = 0
		}

		remaining := int64(l.Max) - used
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("RateLimit-Limit", strconv.Itoa(l.Max))
		w.Header().Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if used >= int64(l.Max) {
			metrics.IncRateLimited(l.Name)
			utils.WriteError(w, http.StatusTooManyRequests, l.Message)
			return
		}

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.Status() >= http.StatusBadRequest {
			if _, err := l.Counter.Incr(r.Context(), key, l.Window); err != nil {
				l.Logger.Error().Err(err).Str("limiter", l.Name).Msg("rate limit increment failed")
			}
		}
	})
}
