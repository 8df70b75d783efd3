package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(context.Background(), "ip:10.0.0.1", 3, time.Minute, now)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if res.Remaining != 3-i-1 {
			t.Fatalf("expected remaining %d, got %d", 3-i-1, res.Remaining)
		}
	}

	res, err := limiter.Allow(context.Background(), "ip:10.0.0.1", 3, time.Minute, now)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatalf("expected fourth request to be rejected")
	}
	if !res.Reset.After(now) {
		t.Fatalf("expected reset after now, got %s", res.Reset)
	}
}

func TestMemoryLimiter_WindowRollover(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)

	if res, _ := limiter.Allow(context.Background(), "k", 1, time.Minute, now); !res.Allowed {
		t.Fatalf("expected first request to be allowed")
	}
	if res, _ := limiter.Allow(context.Background(), "k", 1, time.Minute, now); res.Allowed {
		t.Fatalf("expected second request in window to be rejected")
	}
	if res, _ := limiter.Allow(context.Background(), "k", 1, time.Minute, now.Add(time.Minute)); !res.Allowed {
		t.Fatalf("expected request in next window to be allowed")
	}
}

func TestMemoryLimiter_DistinctKeys(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Now()

	if res, _ := limiter.Allow(context.Background(), "a", 1, time.Minute, now); !res.Allowed {
		t.Fatalf("expected key a to be allowed")
	}
	if res, _ := limiter.Allow(context.Background(), "b", 1, time.Minute, now); !res.Allowed {
		t.Fatalf("expected key b to have its own counter")
	}
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	limiter := NewMemoryLimiter()
	for i := 0; i < 10; i++ {
		res, err := limiter.Allow(context.Background(), "k", 0, time.Minute, time.Now())
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("expected zero limit to disable limiting")
		}
	}
}
