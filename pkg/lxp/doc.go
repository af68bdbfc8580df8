// Package lxp implements the HTTP client for the learning platform API.
//
// The client owns the authenticated session: Login performs the sign-in
// exchange and stores the bearer token, every request goes through a shared
// rate limiter, and an expired session is refreshed at most once per expiry
// no matter how many concurrent requests observe the stale token. Reauth
// wraps an operation with that refresh-and-rerun behavior.
//
// Fetch methods return decoded domain types from pkg/models together with
// the raw payloads needed for JSON output mode. Document and asset downloads
// distinguish platform-relative locators, which carry the bearer token, from
// absolute URLs into external storage, which are fetched unauthenticated.
package lxp
