package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Ensure RateLimited implements the interface.
var _ Client = (*RateLimited)(nil)

// RateLimited throttles calls to another Client with a token bucket.
// Waiting honours the request context.
type RateLimited struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute requests per minute with the given burst (minimum 1).
func NewRateLimited(next Client, perMinute float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
	}
}

func (r *RateLimited) Model() string { return r.next.Model() }

func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Generate(ctx, prompt)
}
