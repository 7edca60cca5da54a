package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// SyncService pulls the full product, order and customer set of a linked
// store and reconciles it page by page.
type SyncService struct {
	tenants     ports.TenantRepository
	sessions    *SessionProvider
	client      ports.ShopifyClient
	reconciler  *Reconciler
	metrics     ports.MetricsRecorder
	logger      zerolog.Logger
	callTimeout time.Duration
}

// NewSyncService creates a new sync service
func NewSyncService(
	tenants ports.TenantRepository,
	sessions *SessionProvider,
	client ports.ShopifyClient,
	reconciler *Reconciler,
	metrics ports.MetricsRecorder,
	logger zerolog.Logger,
	callTimeout time.Duration,
) *SyncService {
	return &SyncService{
		tenants:     tenants,
		sessions:    sessions,
		client:      client,
		reconciler:  reconciler,
		metrics:     metrics,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// Sync reconciles products, then orders, then customer snapshots.
// Vendor failures come back as *domain.VendorError; store failures are wrapped.
func (s *SyncService) Sync(ctx context.Context, tenantID string) (domain.SyncCounts, error) {
	var counts domain.SyncCounts

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return counts, fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return counts, domain.ErrTenantNotFound
	}
	session, err := s.sessions.Open(tenant)
	if err != nil {
		return counts, err
	}

	log := s.logger.With().Str("tenantId", tenantID).Str("shop", session.ShopDomain).Logger()
	log.Info().Msg("Starting store sync")
	started := time.Now()

	counts.Products, err = syncPages(ctx, s, "list_products",
		func(ctx context.Context, cursor ports.PageCursor) ([]goshopify.Product, ports.PageCursor, error) {
			return s.client.ListProducts(ctx, session, cursor)
		},
		func(p goshopify.Product) error {
			return s.reconciler.ApplyProduct(ctx, ProductFromShopify(tenantID, p))
		})
	s.metrics.SyncedItems("products", counts.Products)
	if err != nil {
		return counts, err
	}

	counts.Orders, err = syncPages(ctx, s, "list_orders",
		func(ctx context.Context, cursor ports.PageCursor) ([]goshopify.Order, ports.PageCursor, error) {
			return s.client.ListOrders(ctx, session, cursor)
		},
		func(o goshopify.Order) error {
			_, err := s.reconciler.Apply(ctx, domain.SourceSync, OrderEventFromShopify(tenantID, o))
			return err
		})
	s.metrics.SyncedItems("orders", counts.Orders)
	if err != nil {
		return counts, err
	}

	counts.Customers, err = syncPages(ctx, s, "list_customers",
		func(ctx context.Context, cursor ports.PageCursor) ([]goshopify.Customer, ports.PageCursor, error) {
			return s.client.ListCustomers(ctx, session, cursor)
		},
		func(c goshopify.Customer) error {
			return s.reconciler.ApplyCustomerSnapshot(ctx, CustomerFromShopify(tenantID, c))
		})
	s.metrics.SyncedItems("customers", counts.Customers)
	if err != nil {
		return counts, err
	}

	log.Info().
		Int("products", counts.Products).
		Int("orders", counts.Orders).
		Int("customers", counts.Customers).
		Dur("took", time.Since(started)).
		Msg("Store sync complete")
	return counts, nil
}

// syncPages walks every page of one listing, applying items sequentially.
// Each vendor call gets its own timeout. Items owned by another tenant are
// skipped and not counted.
func syncPages[T any](
	ctx context.Context,
	s *SyncService,
	op string,
	fetch func(context.Context, ports.PageCursor) ([]T, ports.PageCursor, error),
	apply func(T) error,
) (int, error) {
	var cursor ports.PageCursor
	applied := 0
	for {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		started := time.Now()
		items, next, err := fetch(callCtx, cursor)
		cancel()
		s.metrics.VendorCall(op, time.Since(started).Seconds(), err)
		if err != nil {
			return applied, asVendorError(op, err)
		}

		for _, item := range items {
			err := apply(item)
			if errors.Is(err, domain.ErrForeignRecord) {
				s.logger.Warn().Err(err).Str("op", op).Msg("Skipping item owned by another tenant")
				continue
			}
			if err != nil {
				return applied, err
			}
			applied++
		}

		if next == "" || next == cursor {
			return applied, nil
		}
		cursor = next
	}
}

// asVendorError makes sure a failed vendor call surfaces as *domain.VendorError
func asVendorError(op string, err error) error {
	var ve *domain.VendorError
	if errors.As(err, &ve) {
		return err
	}
	return &domain.VendorError{
		Op:        op,
		Retryable: errors.Is(err, context.DeadlineExceeded),
		Err:       err,
	}
}
