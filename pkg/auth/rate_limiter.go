package auth

import (
	"context"
	"sync"
	"time"
)

// SlidingWindowLimiter caps requests per key over a rolling window. Entries
// whose window has fully drained are removed so the map does not grow with
// every IP that ever hit the API.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	seen       map[string][]time.Time
	limit      int
	windowSize time.Duration
	lastSweep  time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per
// windowSize per key.
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		seen:       make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		lastSweep:  time.Now(),
	}
}

// Allow reports whether a request for key is within the limit, recording it
// when allowed.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.windowSize {
		l.sweepLocked(cutoff)
		l.lastSweep = now
	}

	stamps := l.seen[key]
	live := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}

	if len(live) >= l.limit {
		l.seen[key] = live
		return false, nil
	}

	l.seen[key] = append(live, now)
	return true, nil
}

// Reset clears the window for a key.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, key)
	return nil
}

func (l *SlidingWindowLimiter) sweepLocked(cutoff time.Time) {
	for key, stamps := range l.seen {
		idle := true
		for _, ts := range stamps {
			if ts.After(cutoff) {
				idle = false
				break
			}
		}
		if idle {
			delete(l.seen, key)
		}
	}
}

// IPRateLimiter limits unauthenticated traffic per client IP.
type IPRateLimiter struct {
	limiter *SlidingWindowLimiter
}

func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute)}
}

func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, "ip:"+ip)
}

// UserRateLimiter limits authenticated traffic per student.
type UserRateLimiter struct {
	limiter *SlidingWindowLimiter
}

func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute)}
}

func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, "user:"+userID)
}
