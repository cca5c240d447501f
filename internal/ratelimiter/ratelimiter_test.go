package ratelimiter

import (
	"context"
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(cfg Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := New(cfg)
	l.now = clock.now
	return l, clock
}

// TestNew verifies defaults and the disabled case.
func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantBurst int
		wantNil   bool
	}{
		{name: "explicit burst", cfg: Config{RequestsPerSecond: 100, Burst: 5}, wantBurst: 5},
		{name: "default burst", cfg: Config{RequestsPerSecond: 10}, wantBurst: 20},
		{name: "fractional rate", cfg: Config{RequestsPerSecond: 0.2}, wantBurst: 1},
		{name: "disabled", cfg: Config{}, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.cfg)
			if tt.wantNil {
				if l != nil {
					t.Fatal("expected nil limiter when disabled")
				}
				return
			}
			if l == nil {
				t.Fatal("New() returned nil")
			}
			if l.burst != tt.wantBurst {
				t.Fatalf("burst = %d, want %d", l.burst, tt.wantBurst)
			}
		})
	}
}

// TestAllow verifies that each key gets its own bucket.
func TestAllow(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerSecond: 10, Burst: 3})

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed (within burst)", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("request should be limited after burst exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatal("another client should have its own bucket")
	}

	// 100ms at 10 req/s refills one token
	clock.advance(100 * time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Fatal("request should be allowed after token replenishment")
	}
}

// TestIdleBucketsAreDropped verifies that the sweep forgets idle clients.
func TestIdleBucketsAreDropped(t *testing.T) {
	l, clock := newTestLimiter(Config{RequestsPerSecond: 1, IdleTTL: time.Minute})

	l.Allow("a")
	l.Allow("b")
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	clock.advance(2 * time.Minute)
	l.Allow("c")

	if l.Len() != 1 {
		t.Fatalf("Len() = %d after sweep, want 1", l.Len())
	}
}

// TestWaitContextCancellation verifies that Wait() respects context cancellation.
func TestWaitContextCancellation(t *testing.T) {
	l := New(Config{RequestsPerSecond: 0.5, Burst: 1})

	if !l.Allow("client") {
		t.Fatal("first request should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "client"); err == nil {
		t.Fatal("Wait() should fail when the context ends before a token is available")
	}
}

// TestNilLimiter verifies that a disabled limiter always allows.
func TestNilLimiter(t *testing.T) {
	var l *Limiter

	for i := 0; i < 1000; i++ {
		if !l.Allow("client") {
			t.Fatalf("disabled limiter should allow request %d", i)
		}
	}
	if err := l.Wait(context.Background(), "client"); err != nil {
		t.Fatalf("Wait() on a disabled limiter: %v", err)
	}
	if l.RetryAfter() != 0 || l.Len() != 0 {
		t.Fatal("disabled limiter should report zero values")
	}
}

func TestRetryAfter(t *testing.T) {
	l := New(Config{RequestsPerSecond: 4})
	if got := l.RetryAfter(); got != 250*time.Millisecond {
		t.Fatalf("RetryAfter() = %v, want 250ms", got)
	}
}

// BenchmarkAllowParallel measures concurrent Allow() performance.
func BenchmarkAllowParallel(b *testing.B) {
	l := New(Config{RequestsPerSecond: 1_000_000})

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l.Allow("bench")
		}
	})
}
