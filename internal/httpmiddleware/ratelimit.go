package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// staleAfter is how long an idle client's bucket survives before it is
// evicted on the next sweep.
const staleAfter = 10 * time.Minute

// TokenBucket is an in-memory rate limiter keyed by client and route,
// so a burst of student check-ins cannot starve the instructor
// endpoints from the same address. Tokens refill continuously at a
// fractional rate rather than in whole-token steps. State lives in the
// process; a multi-instance deployment would move this to Redis.
type TokenBucket struct {
	capacity  float64
	perSecond float64

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewTokenBucket creates a limiter holding capacity tokens, refilled at
// perMinute.
func NewTokenBucket(capacity, perMinute int) *TokenBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &TokenBucket{
		capacity:  float64(capacity),
		perSecond: float64(perMinute) / 60,
		buckets:   make(map[string]*bucket),
	}
}

// GinMiddleware returns a gin handler enforcing per-client, per-route
// limits.
func (l *TokenBucket) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip+"|"+c.FullPath(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *TokenBucket) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.sweep(now)
		b = &bucket{tokens: l.capacity}
		l.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * l.perSecond
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep drops buckets idle past staleAfter. Called with the lock held,
// only when a new client shows up, so steady traffic never pays for it.
func (l *TokenBucket) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > staleAfter {
			delete(l.buckets, key)
		}
	}
}
