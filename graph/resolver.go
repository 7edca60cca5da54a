package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/pubsub"

	"github.com/rs/zerolog"
)

// StatsReader serves the dashboard aggregates
type StatsReader interface {
	Stats(ctx context.Context, tenantID string, q domain.StatsQuery) (*domain.Stats, error)
}

// TenantReader loads the signed-in tenant
type TenantReader interface {
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// EventSubscriber opens realtime subscriptions
type EventSubscriber interface {
	Subscribe(ctx context.Context, tenantID string) *pubsub.Subscription
}

// Resolver holds the services behind the GraphQL fields
type Resolver struct {
	stats   StatsReader
	tenants TenantReader
	events  EventSubscriber
	logger  zerolog.Logger
}

// NewResolver creates a new GraphQL resolver
func NewResolver(stats StatsReader, tenants TenantReader, events EventSubscriber, logger zerolog.Logger) *Resolver {
	return &Resolver{
		stats:   stats,
		tenants: tenants,
		events:  events,
		logger:  logger,
	}
}

type object = map[string]any

func (r *Resolver) resolveStats(ctx context.Context, tenantID string, args map[string]any) (object, error) {
	top, err := intArg(args["top"])
	if err != nil {
		return nil, err
	}
	q, err := application.ParseStatsQuery(stringArg(args["startDate"]), stringArg(args["endDate"]), top)
	if err != nil {
		return nil, err
	}
	stats, err := r.stats.Stats(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	return toObject(stats)
}

func (r *Resolver) resolveMe(ctx context.Context, tenantID string) (object, error) {
	tenant, err := r.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	me := object{
		"id":          tenant.ID,
		"email":       tenant.Email,
		"shopDomain":  nil,
		"isConnected": tenant.IsConnected(),
	}
	if shop := tenant.Shop(); shop != "" {
		me["shopDomain"] = shop
	}
	return me, nil
}

func eventObject(ev domain.TenantEvent) object {
	out := object{
		"type":       ev.Type,
		"tenantId":   ev.TenantID,
		"orderId":    nil,
		"message":    ev.Message,
		"occurredAt": ev.OccurredAt.UTC().Format(time.RFC3339),
	}
	if ev.OrderID != "" {
		out["orderId"] = ev.OrderID
	}
	return out
}

// toObject turns a JSON-tagged value into nested maps keyed by its JSON names
func toObject(v any) (object, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out object
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return out, nil
}

func stringArg(v any) string {
	s, _ := v.(string)
	return s
}

func intArg(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: top must be an integer", domain.ErrMalformedPayload)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%w: top must be an integer", domain.ErrMalformedPayload)
	}
}

// publicMessage is the error text shown to GraphQL clients
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedPayload),
		errors.Is(err, domain.ErrTenantNotFound):
		return err.Error()
	default:
		return "internal server error"
	}
}
