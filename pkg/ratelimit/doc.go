// Package ratelimit provides client-side rate limiting for platform requests.
//
// The learning platform throttles aggressive clients, so every request the
// fetcher makes goes through a shared limiter first.
//
// Available Implementations:
//
// Sliding Window:
//   - Tracks request timestamps within a moving time window
//   - Matches the platform's own accounting, so it is the default
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Allows short bursts followed by quiet periods
//
// All rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed right now
//   - Wait(ctx) error - Block until a request is allowed or ctx is done
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 5 requests per second, the platform default
//	limiter := ratelimit.New("sliding_window", 5)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // cancelled while throttled
//	}
//	// Proceed with request
package ratelimit
