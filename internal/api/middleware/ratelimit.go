package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/BigOtis/Polylogue/internal/metrics"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter implements fixed-window per-IP rate limiting on Redis.
// Limits fail open: if Redis is unreachable the request proceeds.
type RateLimiter struct {
	client *redis.Client
	logger zerolog.Logger
	limits map[string]RateLimit
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: logger,
		limits: map[string]RateLimit{
			"GET /rooms":                 {60, time.Minute},
			"GET /rooms/:room/messages":  {120, time.Minute},
			"POST /rooms/:room/messages": {30, time.Minute},
		},
	}
}

// findLimit matches a request against the configured endpoint patterns,
// keyed by the same normalized path token the metrics middleware uses.
func (rl *RateLimiter) findLimit(r *http.Request) (string, *RateLimit) {
	pattern := r.Method + " " + normalizePath(r.URL.Path)
	if limit, ok := rl.limits[pattern]; ok {
		return pattern, &limit
	}
	return "", nil
}

// clientIP extracts the client IP, relying on chi's RealIP middleware having
// already resolved forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// checkAndIncrement counts the request in the current fixed window.
// Returns (allowed, remaining, resetAt).
func (rl *RateLimiter) checkAndIncrement(r *http.Request, key string, limit RateLimit) (bool, int, time.Time) {
	now := time.Now()
	bucket := now.Unix() / int64(limit.Window.Seconds())
	windowKey := fmt.Sprintf("%s:%d", key, bucket)

	pipe := rl.client.Pipeline()
	countCmd := pipe.Incr(r.Context(), windowKey)
	pipe.Expire(r.Context(), windowKey, limit.Window*2)

	if _, err := pipe.Exec(r.Context()); err != nil {
		// Fail open
		return true, limit.Requests, now.Add(limit.Window)
	}

	count := int(countCmd.Val())
	remaining := limit.Requests - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := time.Unix((bucket+1)*int64(limit.Window.Seconds()), 0)
	return count <= limit.Requests, remaining, resetAt
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pattern, limit := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:" + pattern + ":" + clientIP(r)
		allowed, remaining, resetAt := rl.checkAndIncrement(r, key, *limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			metrics.RateLimitHits.WithLabelValues(pattern).Inc()
			rl.logger.Warn().
				Str("ip", clientIP(r)).
				Str("endpoint", pattern).
				Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Until(resetAt).Seconds())+1))
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
