// Package middleware provides HTTP middleware for codelens.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// maxClients caps the tracked-IP table so an address scan cannot
	// exhaust memory.
	maxClients = 100_000

	evictEvery = 5 * time.Minute
	staleAfter = 10 * time.Minute
)

// RateLimiter applies per-IP token bucket rate limiting. Tokens accrue
// fractionally, so low rates still refill smoothly between requests.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket

	rate  float64 // tokens per second
	burst float64
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing ratePerSec sustained requests
// with the given burst. A background goroutine evicts idle client entries
// until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*tokenBucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
	}
	go rl.evictLoop(ctx)

	return rl
}

// take refills the bucket for the elapsed time and spends one token.
// Caller holds rl.mu.
func (rl *RateLimiter) take(b *tokenBucket, now time.Time) bool {
	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--

	return true
}

func (rl *RateLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(evictEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, b := range rl.clients {
				if now.Sub(b.lastSeen) > staleAfter {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Handler returns gin middleware enforcing the limit per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP is spoof-safe here: the router disables trusted
		// proxies, so forwarded headers are ignored.
		ip := c.ClientIP()
		now := time.Now()

		rl.mu.Lock()
		b, ok := rl.clients[ip]
		if !ok {
			if len(rl.clients) >= maxClients {
				rl.mu.Unlock()
				respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

				return
			}

			b = &tokenBucket{tokens: rl.burst, lastSeen: now}
			rl.clients[ip] = b
		}
		allowed := rl.take(b, now)
		rl.mu.Unlock()

		if !allowed {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
