package crawler

import (
	"time"

	"lxpfetch/pkg/config"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/retry"
)

// RetryConfig builds the retry policy shared by every platform call in a
// run. Only transient errors are retried; the predicate comes from the retry
// package defaults.
func RetryConfig(cfg *config.Config, log logger.Logger) *retry.Config {
	rc := retry.DefaultConfig()
	if cfg.Retry.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.Retry.MaxAttempts
	}

	backoff := retry.DefaultExponentialBackoff()
	if d := time.Duration(cfg.Retry.BaseDelay); d > 0 {
		backoff.BaseDelay = d
	}
	if d := time.Duration(cfg.Retry.MaxDelay); d > 0 {
		backoff.MaxDelay = d
	}
	rc.Backoff = backoff

	rc.Logger = log
	return rc
}
