package api

import (
	"context"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Register(ctx context.Context, email, password string) (*application.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*application.AuthResult)
	return res, args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, email, password string) (*application.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*application.AuthResult)
	return res, args.Error(1)
}

func (m *mockAccounts) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	t, _ := args.Get(0).(*domain.Tenant)
	return t, args.Error(1)
}

func (m *mockAccounts) ConnectStore(ctx context.Context, tenantID, shopDomain, accessToken string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID, shopDomain, accessToken)
	t, _ := args.Get(0).(*domain.Tenant)
	return t, args.Error(1)
}

func (m *mockAccounts) DisconnectStore(ctx context.Context, tenantID string) error {
	return m.Called(ctx, tenantID).Error(0)
}

type mockSyncer struct{ mock.Mock }

func (m *mockSyncer) Sync(ctx context.Context, tenantID string) (domain.SyncCounts, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(domain.SyncCounts), args.Error(1)
}

type mockStats struct{ mock.Mock }

func (m *mockStats) Stats(ctx context.Context, tenantID string, q domain.StatsQuery) (*domain.Stats, error) {
	args := m.Called(ctx, tenantID, q)
	s, _ := args.Get(0).(*domain.Stats)
	return s, args.Error(1)
}

type mockProcessor struct{ mock.Mock }

func (m *mockProcessor) Process(ctx context.Context, event *domain.WebhookEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}
