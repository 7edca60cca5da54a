package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testShop = "demo.myshopify.com"

func orderEvent(tenantID, orderID, price string, customer *domain.CustomerSummary) domain.OrderEvent {
	return domain.OrderEvent{
		TenantID:        tenantID,
		ExternalOrderID: orderID,
		TotalPrice:      dec(price),
		Currency:        "USD",
		CreatedAt:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Customer:        customer,
	}
}

func TestSyncReplayIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()
	ev := orderEvent(tenant.ID, "1001", "25.50", &domain.CustomerSummary{ExternalCustomerID: "c-1", Email: "buyer@example.com"})

	first, err := e.reconciler.Apply(ctx, domain.SourceSync, ev)
	require.NoError(t, err)
	assert.True(t, first.OrderCreated)
	assert.Equal(t, domain.CustomerIncremented, first.Customer)

	second, err := e.reconciler.Apply(ctx, domain.SourceSync, ev)
	require.NoError(t, err)
	assert.False(t, second.OrderCreated)
	assert.Equal(t, domain.CustomerReplay, second.Customer)

	c := e.customer(t, "c-1")
	assertDecimal(t, "25.50", c.TotalSpent)
	assert.Equal(t, 1, c.OrdersCount)
	assert.Equal(t, int64(1), e.count(t, &entity.OrderModel{}))
	assert.Empty(t, e.publisher.Events(), "sync never broadcasts")
}

func TestWebhookReplayDoesNotDoubleCount(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()
	ev := orderEvent("", "2001", "40.00", &domain.CustomerSummary{ExternalCustomerID: "c-2"})

	for i := 0; i < 3; i++ {
		res, err := e.reconciler.ApplyWebhook(ctx, "DEMO.myshopify.com", ev)
		require.NoError(t, err)
		assert.Equal(t, tenant.ID, res.TenantID)
	}

	c := e.customer(t, "c-2")
	assertDecimal(t, "40", c.TotalSpent)
	assert.Equal(t, 1, c.OrdersCount)
	assert.Equal(t, 1, e.metrics.Reconciles["webhook/incremented"])
	assert.Equal(t, 2, e.metrics.Reconciles["webhook/replay"])

	events := e.publisher.Events()
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventOrderSynced, events[0].Type)
	assert.Equal(t, tenant.ID, events[0].TenantID)
	assert.Equal(t, "2001", events[0].OrderID)
}

func TestSyncThenWebhookCountsOnce(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()
	customer := &domain.CustomerSummary{ExternalCustomerID: "c-3"}

	_, err := e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "3001", "10.00", customer))
	require.NoError(t, err)
	res, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "3001", "10.00", customer))
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerReplay, res.Customer)

	_, err = e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "3002", "5.25", customer))
	require.NoError(t, err)

	c := e.customer(t, "c-3")
	assertDecimal(t, "15.25", c.TotalSpent)
	assert.Equal(t, 2, c.OrdersCount)
}

func TestSnapshotOverwrites(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	snap := &domain.CustomerSummary{
		ExternalCustomerID: "c-4",
		Email:              "vip@example.com",
		TotalSpent:         decPtr("500.00"),
		OrdersCount:        intPtr(12),
	}
	res, err := e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "4001", "50.00", snap))
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerOverwritten, res.Customer)

	// the snapshot already includes this order, a bare replay adds nothing
	res, err = e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "4001", "50.00", &domain.CustomerSummary{ExternalCustomerID: "c-4"}))
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerReplay, res.Customer)

	c := e.customer(t, "c-4")
	assertDecimal(t, "500", c.TotalSpent)
	assert.Equal(t, 12, c.OrdersCount)
	assert.Equal(t, "vip@example.com", c.Email)

	// a later snapshot replaces totals wholesale
	snap.TotalSpent = decPtr("100.00")
	snap.OrdersCount = intPtr(2)
	_, err = e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "4001", "50.00", snap))
	require.NoError(t, err)
	c = e.customer(t, "c-4")
	assertDecimal(t, "100", c.TotalSpent)
	assert.Equal(t, 2, c.OrdersCount)
}

func TestOrderCreateThenUpdate(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	res, err := e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "5001", "10.00", nil))
	require.NoError(t, err)
	assert.True(t, res.OrderCreated)
	assert.Equal(t, domain.CustomerNone, res.Customer)

	update := orderEvent(tenant.ID, "5001", "12.75", nil)
	update.Currency = "EUR"
	update.CreatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err = e.reconciler.Apply(ctx, domain.SourceSync, update)
	require.NoError(t, err)
	assert.False(t, res.OrderCreated)

	o := e.order(t, "5001")
	assertDecimal(t, "12.75", o.TotalPrice)
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, tenant.ID, o.TenantID)
	assert.Equal(t, 2024, o.CreatedAt.Year(), "created_at is fixed at creation")
	assert.Equal(t, int64(1), e.count(t, &entity.OrderModel{}))
}

func TestRelinkedShopCannotTouchPreviousTenantRows(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	first := e.linkedTenant(t, "a@example.com", testShop)

	_, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "5001", "10.00", &domain.CustomerSummary{ExternalCustomerID: "77"}))
	require.NoError(t, err)
	require.NoError(t, e.reconciler.ApplyProduct(ctx, domain.Product{ExternalProductID: "p-1", TenantID: first.ID, Title: "Mug"}))

	require.NoError(t, e.tenants.UnlinkStore(ctx, first.ID))
	second := e.linkedTenant(t, "b@example.com", testShop)

	t.Run("update of an owned order", func(t *testing.T) {
		_, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "5001", "999.00", nil))
		assert.ErrorIs(t, err, domain.ErrForeignRecord)
		assert.True(t, IsAcknowledgeable(err))
	})

	t.Run("new order for an owned customer", func(t *testing.T) {
		_, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "5009", "40.00", &domain.CustomerSummary{ExternalCustomerID: "77"}))
		assert.ErrorIs(t, err, domain.ErrForeignRecord)
		assert.True(t, IsAcknowledgeable(err))
	})

	t.Run("snapshot of an owned customer", func(t *testing.T) {
		err := e.reconciler.ApplyCustomerSnapshot(ctx, domain.Customer{
			ExternalCustomerID: "77", TenantID: second.ID, TotalSpent: dec("1"), OrdersCount: 1,
		})
		assert.ErrorIs(t, err, domain.ErrForeignRecord)
	})

	t.Run("retitle of an owned product", func(t *testing.T) {
		err := e.reconciler.ApplyProduct(ctx, domain.Product{ExternalProductID: "p-1", TenantID: second.ID, Title: "Stolen"})
		assert.ErrorIs(t, err, domain.ErrForeignRecord)
	})

	o := e.order(t, "5001")
	assertDecimal(t, "10", o.TotalPrice)
	assert.Equal(t, first.ID, o.TenantID)

	c := e.customer(t, "77")
	assertDecimal(t, "10", c.TotalSpent)
	assert.Equal(t, 1, c.OrdersCount)
	assert.Equal(t, first.ID, c.TenantID)

	var p entity.ProductModel
	require.NoError(t, e.db.Where("external_product_id = ?", "p-1").First(&p).Error)
	assert.Equal(t, "Mug", p.Title)

	assert.Equal(t, int64(1), e.count(t, &entity.OrderModel{}), "rejected order is rolled back")
	assert.Equal(t, int64(1), e.count(t, &entity.CustomerOrderApplication{}))
	assert.Equal(t, 2, e.metrics.Reconciles["webhook/foreign"])
}

func TestOrderWithoutSnapshotRefreshesEmail(t *testing.T) {
	e := newTestEnv(t)
	e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	_, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "5101", "10.00", &domain.CustomerSummary{ExternalCustomerID: "c-5", Email: "old@example.com"}))
	require.NoError(t, err)
	_, err = e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "5102", "5.00", &domain.CustomerSummary{ExternalCustomerID: "c-5", Email: "new@example.com"}))
	require.NoError(t, err)
	_, err = e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "5103", "1.00", &domain.CustomerSummary{ExternalCustomerID: "c-5"}))
	require.NoError(t, err)

	c := e.customer(t, "c-5")
	assert.Equal(t, "new@example.com", c.Email, "empty email keeps the stored one")
	assertDecimal(t, "16", c.TotalSpent)
	assert.Equal(t, 3, c.OrdersCount)
}

func TestConcurrentWebhooksCountEachOrderOnce(t *testing.T) {
	e := newTestEnv(t)
	e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()
	customer := &domain.CustomerSummary{ExternalCustomerID: "c-race"}

	const duplicates = 8
	const distinct = 10

	var g errgroup.Group
	for i := 0; i < duplicates; i++ {
		g.Go(func() error {
			_, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", "dup", "5.00", customer))
			return err
		})
	}
	for i := 0; i < distinct; i++ {
		id := fmt.Sprintf("o-%d", i)
		g.Go(func() error {
			_, err := e.reconciler.ApplyWebhook(ctx, testShop, orderEvent("", id, "2.50", customer))
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(distinct+1), e.count(t, &entity.OrderModel{}))
	assert.Equal(t, int64(distinct+1), e.count(t, &entity.CustomerOrderApplication{}))

	c := e.customer(t, "c-race")
	assert.Equal(t, distinct+1, c.OrdersCount)
	assertDecimal(t, "30", c.TotalSpent)
	assert.Equal(t, distinct+1, e.metrics.Reconciles["webhook/incremented"])
	assert.Equal(t, duplicates-1, e.metrics.Reconciles["webhook/replay"])
}

func TestUnknownShopMutatesNothing(t *testing.T) {
	e := newTestEnv(t)
	e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	_, err := e.reconciler.ApplyWebhook(ctx, "stranger.myshopify.com", orderEvent("", "6001", "10.00", &domain.CustomerSummary{ExternalCustomerID: "c-6"}))
	assert.ErrorIs(t, err, domain.ErrUnknownTenant)
	assert.True(t, IsAcknowledgeable(err))

	_, err = e.reconciler.ApplyWebhook(ctx, "", orderEvent("", "6001", "10.00", nil))
	assert.ErrorIs(t, err, domain.ErrUnknownTenant)

	assert.Equal(t, int64(0), e.count(t, &entity.OrderModel{}))
	assert.Equal(t, int64(0), e.count(t, &entity.CustomerModel{}))
	assert.Equal(t, int64(0), e.count(t, &entity.CustomerOrderApplication{}))
	assert.Empty(t, e.publisher.Events())
}

func TestApplyRejectsInvalidEvents(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	_, err := e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "", "1.00", nil))
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	_, err = e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "7001", "-1.00", nil))
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	_, err = e.reconciler.Apply(ctx, domain.SourceSync, orderEvent(tenant.ID, "7001", "1.00", &domain.CustomerSummary{}))
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	_, err = e.reconciler.Apply(ctx, domain.SourceSync, orderEvent("", "7001", "1.00", nil))
	assert.ErrorIs(t, err, domain.ErrUnknownTenant)

	assert.Equal(t, int64(0), e.count(t, &entity.OrderModel{}))
}

func TestPublishFailureDoesNotFailReconcile(t *testing.T) {
	e := newTestEnv(t)
	e.linkedTenant(t, "a@example.com", testShop)
	e.publisher.Err = errors.New("broker down")

	_, err := e.reconciler.ApplyWebhook(context.Background(), testShop, orderEvent("", "8001", "9.99", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.count(t, &entity.OrderModel{}))
}

func TestApplyProductAndCustomer(t *testing.T) {
	e := newTestEnv(t)
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	require.NoError(t, e.reconciler.ApplyProduct(ctx, domain.Product{ExternalProductID: "p-1", TenantID: tenant.ID, Title: "Mug"}))
	require.NoError(t, e.reconciler.ApplyProduct(ctx, domain.Product{ExternalProductID: "p-1", TenantID: tenant.ID, Title: "Big Mug"}))
	assert.Equal(t, int64(1), e.count(t, &entity.ProductModel{}))

	assert.ErrorIs(t, e.reconciler.ApplyProduct(ctx, domain.Product{TenantID: tenant.ID}), domain.ErrMalformedPayload)
	assert.ErrorIs(t, e.reconciler.EnsureCustomer(ctx, domain.Customer{TenantID: tenant.ID}), domain.ErrMalformedPayload)

	require.NoError(t, e.reconciler.EnsureCustomer(ctx, domain.Customer{ExternalCustomerID: "c-9", TenantID: tenant.ID}))
	require.NoError(t, e.reconciler.ApplyCustomerSnapshot(ctx, domain.Customer{
		ExternalCustomerID: "c-9", TenantID: tenant.ID, TotalSpent: dec("30"), OrdersCount: 3,
	}))
	require.NoError(t, e.reconciler.EnsureCustomer(ctx, domain.Customer{ExternalCustomerID: "c-9", TenantID: tenant.ID}))

	c := e.customer(t, "c-9")
	assertDecimal(t, "30", c.TotalSpent)
	assert.Equal(t, 3, c.OrdersCount)
}

func TestIsAcknowledgeable(t *testing.T) {
	assert.True(t, IsAcknowledgeable(domain.ErrUnknownTenant))
	assert.True(t, IsAcknowledgeable(errors.Join(domain.ErrMalformedPayload, errors.New("x"))))
	assert.True(t, IsAcknowledgeable(domain.ErrUnsupportedTopic))
	assert.True(t, IsAcknowledgeable(fmt.Errorf("order 1: %w", domain.ErrForeignRecord)))
	assert.False(t, IsAcknowledgeable(errors.New("db down")))
	assert.False(t, IsAcknowledgeable(context.DeadlineExceeded))
}
