package pubsub

import (
	"context"
	"errors"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"
)

// Fanout publishes every event to each of its publishers
type Fanout []ports.TenantEventPublisher

// PublishTenantEvent calls every publisher and joins their errors
func (f Fanout) PublishTenantEvent(ctx context.Context, event domain.TenantEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishTenantEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
