package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "tenant-events:"

func channelFor(tenantID string) string {
	return channelPrefix + tenantID
}

// Broadcaster publishes tenant events to every instance through Redis
type Broadcaster struct {
	client *redis.Client
	logger zerolog.Logger
}

var _ ports.TenantEventPublisher = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster
func NewBroadcaster(client *redis.Client, logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{client: client, logger: logger}
}

// PublishTenantEvent sends event on the tenant's channel
func (b *Broadcaster) PublishTenantEvent(ctx context.Context, event domain.TenantEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant event: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(event.TenantID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish tenant event: %w", err)
	}
	return nil
}

// Relay forwards tenant events from Redis into a local publisher
type Relay struct {
	client *redis.Client
	target ports.TenantEventPublisher
	logger zerolog.Logger
}

// NewRelay creates a relay feeding target
func NewRelay(client *redis.Client, target ports.TenantEventPublisher, logger zerolog.Logger) *Relay {
	return &Relay{client: client, target: target, logger: logger}
}

// Run blocks until ctx is cancelled or the subscription fails
func (r *Relay) Run(ctx context.Context) error {
	ps := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to tenant events: %w", err)
	}
	r.logger.Info().Str("pattern", channelPrefix+"*").Msg("Realtime relay subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Realtime relay stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event domain.TenantEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed tenant event")
				continue
			}
			if event.TenantID == "" {
				event.TenantID = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			if err := r.target.PublishTenantEvent(ctx, event); err != nil {
				r.logger.Warn().Err(err).Str("tenantId", event.TenantID).Msg("Failed to relay tenant event")
			}
		}
	}
}
