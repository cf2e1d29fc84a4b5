// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the in-memory token-bucket limiter in front of the
// book API. Buckets are keyed per client. Writes (POST/PUT/DELETE) may cost
// more tokens than reads, and replays flagged by IdempotencyValidator are
// never charged. The limiter is process-local.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-book-service/internal/apperr"
)

// KeyFunc selects the identity used to key a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByClientIP keys buckets by the client IP as resolved by Gin
// (honouring trusted proxies), e.g. "ip:203.0.113.7".
func KeyByClientIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	RPS       float64       // tokens refilled per second
	Burst     int           // bucket size; <= 0 means 1
	WriteCost int           // tokens charged per write; <= 0 means 1, capped at Burst
	IdleTTL   time.Duration // idle buckets are dropped after this; 0 means 10m
	Key       KeyFunc       // nil means KeyByClientIP
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	opts RateLimitOptions

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter ready to be installed with Handler.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.WriteCost <= 0 {
		opts.WriteCost = 1
	}
	if opts.WriteCost > opts.Burst {
		opts.WriteCost = opts.Burst
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 10 * time.Minute
	}
	if opts.Key == nil {
		opts.Key = KeyByClientIP()
	}
	return &RateLimiter{
		opts:      opts,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// limiterFor returns the bucket for key, creating it when absent. Buckets idle
// for IdleTTL are swept at most once per IdleTTL, before the lookup, so a
// stale bucket is replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.opts.IdleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.opts.IdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rl.opts.RPS), rl.opts.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// cost is the number of tokens a request with method spends.
func (rl *RateLimiter) cost(method string) int {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return rl.opts.WriteCost
	}
	return 1
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay, which Handler lets through without spending tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limits. Rejected requests get 429, a Retry-After in
// whole seconds and an ErrorInfo body of type "rate_limited".
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		lim := rl.limiterFor(rl.opts.Key(c), now)

		r := lim.ReserveN(now, rl.cost(c.Request.Method))
		if r.OK() {
			delay := r.DelayFrom(now)
			if delay == 0 {
				c.Next()
				return
			}
			r.CancelAt(now)
			c.Header("Retry-After", retryAfter(delay))
		} else {
			c.Header("Retry-After", "1")
		}
		abortWithError(c, apperr.HTTP(http.StatusTooManyRequests, apperr.KindRateLimited, "rate limit exceeded"))
	}
}

// retryAfter renders d as whole seconds, rounded up, at least 1.
func retryAfter(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
