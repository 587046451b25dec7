package access

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles requests per client identifier.
type Limiter interface {
	Allow(remoteID string) bool
}

// DefaultLimiterIdleTTL is how long an unused client bucket is kept.
const DefaultLimiterIdleTTL = 5 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client identifier. Buckets idle for
// longer than the TTL are dropped during Allow, so there is no background
// goroutine to stop.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst. A burst below 1 is derived from rps.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(rps)))
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: DefaultLimiterIdleTTL,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (l *RateLimiter) Allow(remoteID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastSweep.IsZero() {
		l.lastSweep = now
	} else if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	bucket, ok := l.clients[remoteID]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[remoteID] = bucket
	}
	bucket.lastSeen = now
	return bucket.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *RateLimiter) sweep(now time.Time) {
	for id, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) >= l.idleTTL {
			delete(l.clients, id)
		}
	}
	l.lastSweep = now
}
