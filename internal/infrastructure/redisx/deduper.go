package redisx

import (
	"context"
	"fmt"
	"time"

	"shopify-insights-layer/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	dedupeKeyPrefix  = "webhook:dedup:"
	DefaultDedupeTTL = 48 * time.Hour
)

// Deduper remembers processed webhook delivery ids in Redis
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.WebhookDeduper = (*Deduper)(nil)

// NewDeduper creates a deduper; ttl 0 means DefaultDedupeTTL
func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &Deduper{client: client, ttl: ttl}
}

// Seen reports whether deliveryID was already marked
func (d *Deduper) Seen(ctx context.Context, deliveryID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupeKeyPrefix+deliveryID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check webhook delivery: %w", err)
	}
	return n > 0, nil
}

// Mark records deliveryID as processed until the TTL expires
func (d *Deduper) Mark(ctx context.Context, deliveryID string) error {
	if err := d.client.SetNX(ctx, dedupeKeyPrefix+deliveryID, "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark webhook delivery: %w", err)
	}
	return nil
}
