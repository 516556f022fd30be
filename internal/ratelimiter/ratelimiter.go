// Package ratelimiter provides token-bucket request pacing for the remote
// session client.
//
// A project sync touches several files in quick succession, and unattended
// runs can stack a periodic timer on top of user-triggered syncs. The limiter
// keeps the client from hammering the workspace server in those bursts while
// still letting a single interactive sync go through unthrottled.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate behind the single entry point the
// sync client needs: a context-aware wait before each request.
//
// Token bucket semantics: tokens refill at the sustained rate, each request
// consumes one, and the burst capacity absorbs short spikes (such as a full
// project sync pulling five files back to back).
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter with the given sustained rate and burst capacity.
//
// A requestsPerSecond of 0 disables limiting (an effectively unlimited rate
// is installed instead of rate.Inf, which has edge cases around Wait).
// A burst of 0 defaults to the sustained rate: a bucket that can never hold
// a token would make every Wait fail. Burst should typically be at least the
// tracked-file count so one project sync never has to wait on itself.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = 1_000_000_000
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Wait blocks until a token is available or the context is cancelled.
//
// Returns nil once a token was acquired, or the context's error if it was
// cancelled or timed out first.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
