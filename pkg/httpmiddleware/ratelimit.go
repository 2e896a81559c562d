package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
)

// RateLimitConfig configures the per-key sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the sliding window length.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Nil means client IP.
	KeyFunc func(*http.Request) string
}

// window holds the request counts of two adjacent fixed windows. The
// sliding estimate weights the previous window by its remaining overlap,
// which bounds memory at two counters per key instead of a request log.
type window struct {
	prevCount int
	prevStart time.Time
	count     int
	start     time.Time
}

type limiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	windows map[string]*window
}

// verdict is the outcome of one limiter check.
type verdict struct {
	allowed   bool
	remaining int
	resetAt   time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &limiter{cfg: cfg, windows: make(map[string]*window)}
}

func (l *limiter) check(key string, now time.Time) verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &window{start: now}
		l.windows[key] = w
	}

	if now.Sub(w.start) >= l.cfg.Window {
		w.prevCount = w.count
		w.prevStart = w.start
		w.count = 0
		w.start = now.Truncate(l.cfg.Window)
		if now.Sub(w.prevStart) >= 2*l.cfg.Window {
			w.prevCount = 0
		}
	}

	overlap := 1 - now.Sub(w.start).Seconds()/l.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	effective := float64(w.prevCount)*overlap + float64(w.count)
	resetAt := w.start.Add(l.cfg.Window)

	if effective >= float64(l.cfg.Max) {
		return verdict{allowed: false, resetAt: resetAt}
	}

	w.count++
	remaining := int(float64(l.cfg.Max) - effective - 1)
	if remaining < 0 {
		remaining = 0
	}
	return verdict{allowed: true, remaining: remaining, resetAt: resetAt}
}

// evictStale drops keys whose windows have fully aged out.
func (l *limiter) evictStale(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.cfg.Window {
			delete(l.windows, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-key sliding window limit.
// Limited requests get a 429 with a JSON body; every response carries the
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset headers.
//
// Stale keys are never evicted; prefer RateLimitWithCleanup on long-running
// servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// stale keys every two windows until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * l.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evictStale(now)
			}
		}
	}()
	return l.middleware()
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := l.check(l.cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(v.resetAt.Unix(), 10))

			if !v.allowed {
				retryAfter := time.Until(v.resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				var e jx.Encoder
				e.Obj(func(e *jx.Encoder) {
					e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusTooManyRequests) })
					e.Field("message", func(e *jx.Encoder) { e.Str("rate limit exceeded") })
				})
				_, _ = w.Write(e.Bytes())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's address: first X-Forwarded-For hop, then
// X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
