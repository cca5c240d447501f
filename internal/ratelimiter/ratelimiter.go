package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config configures a Limiter.
type Config struct {
	// RequestsPerSecond is the sustained rate per key. 0 disables limiting.
	RequestsPerSecond float64

	// Burst is the bucket capacity per key. Defaults to 2x RequestsPerSecond
	// (at least 1).
	Burst int

	// IdleTTL is how long an unused key keeps its bucket. Defaults to 5m.
	IdleTTL time.Duration
}

// Limiter applies a token bucket per key, typically the client address.
//
// Buckets of keys idle for longer than IdleTTL are dropped during the next
// sweep, so memory tracks the set of recently active clients.
//
// Thread safety:
// All methods are safe for concurrent use.
type Limiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time

	// now is replaceable in tests
	now func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter. A nil Limiter is returned when cfg disables
// limiting; its methods always allow.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.RequestsPerSecond*2))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}

	return &Limiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		idleTTL: cfg.IdleTTL,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed now, consuming one
// token if so.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.get(key).AllowN(l.now(), 1)
}

// Wait blocks until a token for key is available or ctx is done.
//
// Returns the context error if ctx ends first.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return ctx.Err()
	}
	return l.get(key).Wait(ctx)
}

// RetryAfter estimates how long a rejected key should wait for one token.
func (l *Limiter) RetryAfter() time.Duration {
	if l == nil || l.limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l.limit))
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) get(key string) *rate.Limiter {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}
