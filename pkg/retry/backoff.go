package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes how long to wait before the next retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the delay that follows the given failed attempt,
	// counted from 1.
	NextDelay(attempt int) time.Duration
	// Reset restores the strategy to its initial state.
	Reset()
}

// ExponentialBackoff grows the delay geometrically up to MaxDelay, with
// optional jitter to spread out simultaneous retries.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor perturbs each delay by up to +/- this fraction (0 to 1).
	JitterFactor float64
}

// DefaultExponentialBackoff returns the backoff used when nothing else is
// configured: 1s base, 30s cap, doubling, 10% jitter.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if ceiling := float64(eb.MaxDelay); delay > ceiling {
		delay = ceiling
	}
	return clampDelay(jitter(delay, eb.JitterFactor))
}

func (eb *ExponentialBackoff) Reset() {}

// ConstantBackoff waits the same Delay before every retry.
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

func (cb *ConstantBackoff) Reset() {}

// jitter perturbs delay by a random amount within +/- delay*factor.
func jitter(delay, factor float64) float64 {
	if factor <= 0 {
		return delay
	}
	spread := delay * factor
	return delay + (rand.Float64()*2-1)*spread
}

func clampDelay(delay float64) time.Duration {
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// Wait sleeps for delay or until ctx is done, whichever comes first.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
