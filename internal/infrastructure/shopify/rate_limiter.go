package shopify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per shop so a large sync for one store
// cannot exhaust the API allowance of another.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	logger   zerolog.Logger
}

// NewRateLimiter creates a limiter allowing perSecond calls per shop with the given burst
func NewRateLimiter(perSecond float64, burst int, logger zerolog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		logger:   logger,
	}
}

func (r *RateLimiter) forShop(shop string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[shop]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[shop] = l
	}
	return l
}

// Wait blocks until the shop may make another call or ctx ends
func (r *RateLimiter) Wait(ctx context.Context, shop string) error {
	l := r.forShop(shop)
	if l.Tokens() < 1 {
		r.logger.Debug().Str("shop", shop).Msg("Waiting for Shopify rate limit")
	}
	return l.Wait(ctx)
}
