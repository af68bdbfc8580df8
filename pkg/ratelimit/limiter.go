package ratelimit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until the rate limit admits another request or the
	// context is cancelled
	Wait(ctx context.Context) error
	// Reset discards all rate limiter state
	Reset()
}

// minPause bounds busy-waiting when a limiter cannot tell exactly how long
// the caller should hold off.
const minPause = 10 * time.Millisecond

// New creates a limiter for the given strategy. Unknown strategies fall back
// to the sliding window, which matches the platform's request accounting.
func New(strategy string, requestsPerSecond int) Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	switch strategy {
	case "token_bucket":
		return NewTokenBucket(requestsPerSecond, time.Second)
	default:
		return NewSlidingWindow(requestsPerSecond, time.Second)
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket admits up to capacity requests per period. The bucket refills
// all at once when the period elapses.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int
	tokens     int
	period     time.Duration
	refilledAt time.Time
}

// NewTokenBucket creates a token bucket holding capacity tokens per period.
func NewTokenBucket(capacity int, period time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		period:     period,
		refilledAt: time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if now := time.Now(); now.Sub(tb.refilledAt) >= tb.period {
		tb.tokens = tb.capacity
		tb.refilledAt = now
	}

	if tb.tokens == 0 {
		return false
	}
	tb.tokens--
	return true
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		if err := sleep(ctx, tb.retryAfter()); err != nil {
			return err
		}
	}
	return nil
}

// Reset refills the bucket immediately.
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.refilledAt = time.Now()
}

// retryAfter estimates how long until the next refill.
func (tb *TokenBucket) retryAfter() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if wait := tb.period - time.Since(tb.refilledAt); wait > minPause {
		return wait
	}
	return minPause
}

// SlidingWindow admits up to maxRequests requests within any window of the
// configured size, timestamping each admitted request.
type SlidingWindow struct {
	mu          sync.Mutex
	window      time.Duration
	maxRequests int
	admitted    []time.Time
}

// NewSlidingWindow creates a sliding window rate limiter.
func NewSlidingWindow(maxRequests int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		window:      window,
		maxRequests: maxRequests,
		admitted:    make([]time.Time, 0, maxRequests),
	}
}

func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.evict(now)

	if len(sw.admitted) >= sw.maxRequests {
		return false
	}
	sw.admitted = append(sw.admitted, now)
	return true
}

func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		if err := sleep(ctx, sw.retryAfter()); err != nil {
			return err
		}
	}
	return nil
}

// Reset forgets all admitted requests.
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.admitted = sw.admitted[:0]
}

// retryAfter estimates how long until the oldest admitted request leaves
// the window.
func (sw *SlidingWindow) retryAfter() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if len(sw.admitted) == 0 {
		return minPause
	}
	if wait := sw.window - time.Since(sw.admitted[0]); wait > minPause {
		return wait
	}
	return minPause
}

// evict drops admitted timestamps that have left the window. Timestamps are
// appended in order, so the slice stays sorted.
func (sw *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-sw.window)
	keep := sort.Search(len(sw.admitted), func(i int) bool {
		return !sw.admitted[i].Before(cutoff)
	})
	if keep > 0 {
		sw.admitted = append(sw.admitted[:0], sw.admitted[keep:]...)
	}
}
