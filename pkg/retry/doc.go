// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations against the learning platform.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter so parallel workers do not retry in lockstep
//   - Context-aware waits that abort on cancellation
//   - Configurable retry predicates
//   - Integration with the classified error types
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(ctx, func() error {
//		return client.Ping(ctx)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 3,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    1 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	page, err := retry.DoWithResult(ctx, func() (*models.LessonPage, error) {
//		return client.LessonStep(ctx, stepID)
//	}, cfg)
//
// Only errors classified as transient (network, rate limit, server error,
// unexpected response) are retried. Terminal failures such as rejected
// credentials or 404s surface immediately.
package retry
