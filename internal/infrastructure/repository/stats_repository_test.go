package repository

import (
	"context"
	"testing"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository/entity"
	"shopify-insights-layer/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, id, tenant, price string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&entity.OrderModel{
		ExternalOrderID: id,
		TenantID:        tenant,
		TotalPrice:      decimal.RequireFromString(price),
		Currency:        "USD",
		CreatedAt:       at,
	}).Error)
}

func TestStatsRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewStatsRepository(db)
	ctx := context.Background()

	day := func(d, h int) time.Time { return time.Date(2024, 6, d, h, 0, 0, 0, time.UTC) }
	seedOrder(t, db, "o1", testTenant, "10.25", day(1, 9))
	seedOrder(t, db, "o2", testTenant, "20.5", day(1, 18))
	seedOrder(t, db, "o3", testTenant, "4.75", day(2, 8))
	seedOrder(t, db, "o4", testTenant, "100", day(9, 8))
	seedOrder(t, db, "x1", "other-tenant", "999", day(1, 10))

	for i, c := range []struct {
		id    string
		spent string
	}{{"c1", "30.75"}, {"c2", "4.75"}, {"c3", "100"}} {
		require.NoError(t, db.Create(&entity.CustomerModel{
			ExternalCustomerID: c.id,
			TenantID:           testTenant,
			TotalSpent:         decimal.RequireFromString(c.spent),
			OrdersCount:        i + 1,
		}).Error)
	}
	require.NoError(t, db.Create(&entity.ProductModel{ExternalProductID: "p1", TenantID: testTenant, Title: "Mug"}).Error)

	window := domain.StatsQuery{From: day(1, 0), To: day(3, 0)}

	t.Run("summary within range", func(t *testing.T) {
		total, count, err := repo.SalesSummary(ctx, testTenant, window)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.True(t, decimal.RequireFromString("35.5").Equal(total), total.String())
	})

	t.Run("summary without range", func(t *testing.T) {
		total, count, err := repo.SalesSummary(ctx, testTenant, domain.StatsQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.True(t, decimal.RequireFromString("135.5").Equal(total), total.String())
	})

	t.Run("summary for empty tenant", func(t *testing.T) {
		total, count, err := repo.SalesSummary(ctx, "empty-tenant", window)
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.True(t, total.IsZero())
	})

	t.Run("counts", func(t *testing.T) {
		n, err := repo.CountProducts(ctx, testTenant)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.CountCustomers(ctx, testTenant)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("recent orders newest first", func(t *testing.T) {
		orders, err := repo.RecentOrders(ctx, testTenant, window, 2)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "o3", orders[0].ExternalOrderID)
		assert.Equal(t, "o2", orders[1].ExternalOrderID)
	})

	t.Run("orders in range oldest first", func(t *testing.T) {
		orders, err := repo.OrdersInRange(ctx, testTenant, window)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "o1", orders[0].ExternalOrderID)
		assert.Equal(t, "o3", orders[2].ExternalOrderID)
	})

	t.Run("top customers by spend", func(t *testing.T) {
		top, err := repo.TopCustomers(ctx, testTenant, 2)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "c3", top[0].ExternalCustomerID)
		assert.Equal(t, "c1", top[1].ExternalCustomerID)
	})
}
