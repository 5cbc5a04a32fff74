package brain

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider so calls wait for a token before going out.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// WithRateLimit allows perMinute calls per minute with a burst of one.
// A non-positive perMinute returns p unchanged.
func WithRateLimit(p Provider, perMinute int) Provider {
	if perMinute <= 0 {
		return p
	}
	return &RateLimited{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// Generate waits for the limiter and then delegates.
func (r *RateLimited) Generate(ctx context.Context, req Request) (Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.Provider.Generate(ctx, req)
}
