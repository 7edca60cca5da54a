package application

import (
	"context"
	"testing"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/repository"
	"shopify-insights-layer/internal/infrastructure/repository/entity"
	"shopify-insights-layer/internal/ports"
	"shopify-insights-layer/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	tenants    ports.TenantRepository
	enc        ports.EncryptionService
	publisher  *testutil.RecordingPublisher
	metrics    *testutil.MetricsSpy
	reconciler *Reconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	e := &testEnv{
		db:        db,
		tenants:   repository.NewTenantRepository(db),
		enc:       testutil.Encryption(t),
		publisher: &testutil.RecordingPublisher{},
		metrics:   testutil.NewMetricsSpy(),
	}
	e.reconciler = NewReconciler(repository.NewReconcileStore(db), e.tenants, e.publisher, e.metrics, testutil.Logger())
	return e
}

// linkedTenant registers a tenant with shop linked and token encrypted
func (e *testEnv) linkedTenant(t *testing.T, email, shop string) *domain.Tenant {
	t.Helper()
	ctx := context.Background()
	tenant := &domain.Tenant{Email: email, PasswordHash: "x"}
	require.NoError(t, e.tenants.Create(ctx, tenant))
	if shop != "" {
		enc, err := e.enc.Encrypt("shpat_" + email)
		require.NoError(t, err)
		require.NoError(t, e.tenants.LinkStore(ctx, tenant.ID, shop, enc, time.Now()))
	}
	got, err := e.tenants.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	return got
}

func (e *testEnv) customer(t *testing.T, id string) entity.CustomerModel {
	t.Helper()
	var c entity.CustomerModel
	require.NoError(t, e.db.Where("external_customer_id = ?", id).First(&c).Error)
	return c
}

func (e *testEnv) order(t *testing.T, id string) entity.OrderModel {
	t.Helper()
	var o entity.OrderModel
	require.NoError(t, e.db.Where("external_order_id = ?", id).First(&o).Error)
	return o
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int {
	return &n
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
