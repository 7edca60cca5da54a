package pubsub

import (
	"context"
	"fmt"
	"sync"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/rs/zerolog"
)

const subscriberBuffer = 16

// Subscription receives the events of a single tenant
type Subscription struct {
	ID       string
	TenantID string
	Events   chan domain.TenantEvent
	Done     chan struct{}
	cancel   context.CancelFunc
}

// Close ends the subscription
func (s *Subscription) Close() {
	s.cancel()
}

// TenantHub fans tenant events out to in-process subscribers
type TenantHub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger zerolog.Logger
	nextID int64
	idMu   sync.Mutex
}

// NewTenantHub creates a new hub
func NewTenantHub(logger zerolog.Logger) *TenantHub {
	return &TenantHub{
		subs:   make(map[string]*Subscription),
		logger: logger,
	}
}

var _ ports.TenantEventPublisher = (*TenantHub)(nil)

// Subscribe registers a subscriber for tenantID. The subscription is
// removed when ctx is cancelled or Close is called.
func (h *TenantHub) Subscribe(ctx context.Context, tenantID string) *Subscription {
	h.idMu.Lock()
	h.nextID++
	id := fmt.Sprintf("sub-%d", h.nextID)
	h.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ID:       id,
		TenantID: tenantID,
		Events:   make(chan domain.TenantEvent, subscriberBuffer),
		Done:     make(chan struct{}),
		cancel:   cancel,
	}

	h.mu.Lock()
	h.subs[id] = sub
	h.mu.Unlock()

	h.logger.Info().Str("subscriptionId", id).Str("tenantId", tenantID).Msg("Realtime subscription created")

	go func() {
		<-subCtx.Done()
		h.unsubscribe(id)
	}()

	return sub
}

func (h *TenantHub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return
	}
	close(sub.Events)
	close(sub.Done)
	delete(h.subs, id)

	h.logger.Info().Str("subscriptionId", id).Msg("Realtime subscription removed")
}

// PublishTenantEvent delivers event to the tenant's subscribers without blocking
func (h *TenantHub) PublishTenantEvent(_ context.Context, event domain.TenantEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if sub.TenantID != event.TenantID {
			continue
		}
		select {
		case sub.Events <- event:
			delivered++
		default:
			h.logger.Warn().
				Str("subscriptionId", sub.ID).
				Str("tenantId", event.TenantID).
				Msg("Subscriber buffer full, dropping event")
		}
	}

	if delivered > 0 {
		h.logger.Debug().
			Str("type", event.Type).
			Str("tenantId", event.TenantID).
			Int("subscribers", delivered).
			Msg("Published tenant event")
	}
	return nil
}

// Count returns the number of active subscriptions
func (h *TenantHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
