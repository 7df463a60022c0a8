package middleware

import (
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// RateLimiter enforces per-client request budgets over a sliding window.
// Crossing the soft threshold delays the request with exponential backoff
// plus jitter; crossing the hard threshold blocks the client outright for
// the block duration.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	soft          int
	hard          int
	window        time.Duration
	blockDuration time.Duration
	baseDelay     time.Duration
	maxDelay      time.Duration

	now   func() time.Time
	sleep func(*http.Request, time.Duration)
}

type visitor struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// RateLimiterConfig holds RateLimiter settings.
type RateLimiterConfig struct {
	SoftThreshold int
	HardThreshold int
	Window        time.Duration
	BlockDuration time.Duration
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.SoftThreshold == 0 {
		cfg.SoftThreshold = 5
	}
	if cfg.HardThreshold == 0 {
		cfg.HardThreshold = 20
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 60 * time.Second
	}

	return &RateLimiter{
		visitors:      make(map[string]*visitor),
		soft:          cfg.SoftThreshold,
		hard:          cfg.HardThreshold,
		window:        cfg.Window,
		blockDuration: cfg.BlockDuration,
		baseDelay:     100 * time.Millisecond,
		maxDelay:      2 * time.Second,
		now:           time.Now,
		sleep:         sleepOrCancel,
	}
}

// Limit gates requests per client IP and, when present, per API key.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identities := []string{"ip:" + clientIP(r)}
		if key := r.Header.Get(APIKeyHeader); key != "" {
			identities = append(identities, "key:"+key)
		}

		var delay time.Duration
		for _, id := range identities {
			d, blocked := rl.allow(id)
			if blocked {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"too many requests"}}`))
				return
			}

			if d > delay {
				delay = d
			}
		}

		if delay > 0 {
			rl.sleep(r, delay)
		}

		next.ServeHTTP(w, r)
	})
}

// allow counts one request for the identity. It returns the backoff delay
// to apply (zero below the soft threshold) and whether the identity is
// blocked outright.
func (rl *RateLimiter) allow(identity string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	v, ok := rl.visitors[identity]
	if !ok {
		v = &visitor{windowStart: now}
		rl.visitors[identity] = v
	}

	v.lastSeen = now

	if now.Before(v.blockedUntil) {
		return 0, true
	}

	if now.Sub(v.windowStart) > rl.window {
		v.count = 0
		v.windowStart = now
	}

	v.count++

	if v.count > rl.hard {
		v.blockedUntil = now.Add(rl.blockDuration)
		return 0, true
	}

	if v.count > rl.soft {
		return rl.backoffDelay(v.count - rl.soft), false
	}

	return 0, false
}

// backoffDelay doubles per excess request over the soft threshold, with up
// to 50% random jitter, capped at maxDelay.
func (rl *RateLimiter) backoffDelay(excess int) time.Duration {
	delay := rl.baseDelay << (excess - 1)
	if delay > rl.maxDelay || delay <= 0 {
		delay = rl.maxDelay
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))

	return delay + jitter
}

// Cleanup drops identities idle longer than the window and not blocked.
// Call it periodically to bound memory.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for id, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.window && now.After(v.blockedUntil) {
			delete(rl.visitors, id)
		}
	}
}

func sleepOrCancel(r *http.Request, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-r.Context().Done():
	}
}

// clientIP extracts the client address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	return r.RemoteAddr
}
