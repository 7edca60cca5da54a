package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/auth"
	"shopify-insights-layer/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTenantService(e *testEnv, client *testutil.FakeShopify) (*TenantService, *auth.JWTService) {
	tokens := auth.NewJWTService("test-secret-key-at-least-32-chars", time.Hour, "test")
	svc := NewTenantService(e.tenants, auth.NewBcryptHasher(bcrypt.MinCost), tokens, e.enc, client, testutil.Logger(), time.Second)
	return svc, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	svc, tokens := newTenantService(e, &testutil.FakeShopify{})
	ctx := context.Background()

	res, err := svc.Register(ctx, " Owner@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", res.Tenant.Email)
	assert.NotEmpty(t, res.Tenant.ID)
	assert.False(t, res.Tenant.IsConnected())

	p, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Tenant.ID, p.TenantID)

	_, err = svc.Register(ctx, "owner@example.com", "password456")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	_, err = svc.Register(ctx, "  ", "password123")
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	_, err = svc.Register(ctx, "new@example.com", "")
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)

	login, err := svc.Login(ctx, "OWNER@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, res.Tenant.ID, login.Tenant.ID)

	_, err = svc.Login(ctx, "owner@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestConnectStore(t *testing.T) {
	e := newTestEnv(t)
	client := &testutil.FakeShopify{}
	svc, _ := newTenantService(e, client)
	tenant := e.linkedTenant(t, "a@example.com", "")
	ctx := context.Background()

	linked, err := svc.ConnectStore(ctx, tenant.ID, "https://Demo.myshopify.com/", "shpat_live")
	require.NoError(t, err)
	assert.True(t, linked.IsConnected())
	assert.Equal(t, testShop, linked.Shop())
	require.NotNil(t, linked.InstalledAt)
	assert.NotEqual(t, "shpat_live", *linked.AccessTokenEnc)

	plain, err := e.enc.Decrypt(*linked.AccessTokenEnc)
	require.NoError(t, err)
	assert.Equal(t, "shpat_live", plain)
	assert.Equal(t, []string{"get_shop:"}, client.Calls)

	require.NoError(t, svc.DisconnectStore(ctx, tenant.ID))
	got, err := svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.False(t, got.IsConnected())
	assert.Nil(t, got.ShopDomain)
}

func TestConnectStoreRejections(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.linkedTenant(t, "owner@example.com", testShop)
	tenant := e.linkedTenant(t, "a@example.com", "")

	svc, _ := newTenantService(e, &testutil.FakeShopify{})
	_, err := svc.ConnectStore(ctx, tenant.ID, "not a shop", "shpat_x")
	assert.ErrorIs(t, err, domain.ErrInvalidShopDomain)
	_, err = svc.ConnectStore(ctx, tenant.ID, "fresh.myshopify.com", " ")
	assert.ErrorIs(t, err, domain.ErrMalformedPayload)
	_, err = svc.ConnectStore(ctx, tenant.ID, testShop, "shpat_x")
	assert.ErrorIs(t, err, domain.ErrShopAlreadyLinked)

	// the owner may relink its own shop
	_, err = svc.ConnectStore(ctx, owner.ID, testShop, "shpat_rotated")
	require.NoError(t, err)

	rejected := &testutil.FakeShopify{ShopErr: &domain.VendorError{Op: "get_shop", StatusCode: 401, Reauthorize: true, Err: errors.New("401")}}
	svc, _ = newTenantService(e, rejected)
	_, err = svc.ConnectStore(ctx, tenant.ID, "fresh.myshopify.com", "shpat_revoked")
	assert.True(t, domain.NeedsReauthorization(err))
	got, err := svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.False(t, got.IsConnected())

	flaky := &testutil.FakeShopify{ShopErr: &domain.VendorError{Op: "get_shop", StatusCode: 503, Retryable: true, Err: errors.New("503")}}
	svc, _ = newTenantService(e, flaky)
	linked, err := svc.ConnectStore(ctx, tenant.ID, "fresh.myshopify.com", "shpat_ok")
	require.NoError(t, err, "transient vendor errors do not block linking")
	assert.True(t, linked.IsConnected())
}

func TestDisconnectShop(t *testing.T) {
	e := newTestEnv(t)
	svc, _ := newTenantService(e, &testutil.FakeShopify{})
	tenant := e.linkedTenant(t, "a@example.com", testShop)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DisconnectShop(ctx, "stranger.myshopify.com"), domain.ErrUnknownTenant)

	require.NoError(t, svc.DisconnectShop(ctx, "DEMO.myshopify.com"))
	got, err := svc.Get(ctx, tenant.ID)
	require.NoError(t, err)
	assert.False(t, got.IsConnected())

	_, err = svc.Get(ctx, "9d3c1b7e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
}
