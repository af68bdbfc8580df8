package lxp

import (
	"context"

	apperrors "lxpfetch/pkg/errors"
)

// Reauth runs op and, if it fails because the session expired, refreshes the
// session and runs op once more. The generation observed before the first
// attempt lets Relogin tell whether another goroutine already refreshed, so
// a burst of concurrent expiries produces a single sign-in. A second expiry
// on the rerun is returned as-is; the session is not refreshed twice for one
// operation.
func Reauth[T any](ctx context.Context, c *Client, op func() (T, error)) (T, error) {
	observed := c.SessionGeneration()

	result, err := op()
	if err == nil || !apperrors.IsSessionExpired(err) {
		return result, err
	}

	if rerr := c.Relogin(ctx, observed); rerr != nil {
		return result, rerr
	}

	return op()
}
