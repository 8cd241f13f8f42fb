package middleware

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"
)

// Webhook traffic arrives from a small set of Meta egress IPs, so the
// limiter keeps one token bucket per client IP. Stale buckets are
// swept inline during allow rather than by a background goroutine.
const bucketIdleEvict = 10 * time.Minute

type clientLimiter struct {
	mu        sync.Mutex
	rate      float64
	burst     float64
	buckets   map[string]*tokenBucket
	lastSweep time.Time
	now       func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

func newClientLimiter(rate float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		rate:    rate,
		burst:   float64(burst),
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > bucketIdleEvict {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > bucketIdleEvict {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
	}
	b.tokens = math.Min(l.burst, b.tokens+now.Sub(b.seen).Seconds()*l.rate)
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientKey prefers the address chi's RealIP middleware resolved.
func clientKey(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects clients exceeding rate requests per second with
// 429 Too Many Requests. A rate of zero or less disables limiting.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := newClientLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		if rate <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientKey(r)) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
