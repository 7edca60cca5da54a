package testutil

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"sync"
	"testing"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/encryption"
	"shopify-insights-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/stretchr/testify/require"
)

// Encryption returns an AES-GCM service with a fixed test key
func Encryption(t *testing.T) ports.EncryptionService {
	t.Helper()
	svc, err := encryption.NewService(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("t", 32))))
	require.NoError(t, err)
	return svc
}

// RecordingPublisher keeps every published tenant event
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.TenantEvent
	Err    error
}

func (p *RecordingPublisher) PublishTenantEvent(_ context.Context, event domain.TenantEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.Err
}

// Events returns a copy of the published events
func (p *RecordingPublisher) Events() []domain.TenantEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TenantEvent(nil), p.events...)
}

// MetricsSpy counts recorded metrics by label
type MetricsSpy struct {
	mu         sync.Mutex
	Reconciles map[string]int
	Webhooks   map[string]int
	Items      map[string]int
	Vendor     map[string]int
}

func NewMetricsSpy() *MetricsSpy {
	return &MetricsSpy{
		Reconciles: map[string]int{},
		Webhooks:   map[string]int{},
		Items:      map[string]int{},
		Vendor:     map[string]int{},
	}
}

func (m *MetricsSpy) Reconciled(source domain.ReconcileSource, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reconciles[string(source)+"/"+result]++
}

func (m *MetricsSpy) WebhookHandled(topic, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Webhooks[topic+"/"+outcome]++
}

func (m *MetricsSpy) SyncedItems(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[kind] += n
}

func (m *MetricsSpy) VendorCall(op string, _ float64, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Vendor[op]++
}

// FakeShopify serves canned pages. Cursors are page indexes.
type FakeShopify struct {
	mu        sync.Mutex
	Products  [][]goshopify.Product
	Orders    [][]goshopify.Order
	Customers [][]goshopify.Customer
	ShopErr   error
	ListErr   map[string]error
	Calls     []string
	Sessions  []domain.StoreSession
}

var _ ports.ShopifyClient = (*FakeShopify)(nil)

func (f *FakeShopify) record(op string, session domain.StoreSession, cursor ports.PageCursor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op+":"+string(cursor))
	f.Sessions = append(f.Sessions, session)
	return f.ListErr[op]
}

func (f *FakeShopify) GetShop(_ context.Context, session domain.StoreSession) (*goshopify.Shop, error) {
	if err := f.record("get_shop", session, ""); err != nil {
		return nil, err
	}
	if f.ShopErr != nil {
		return nil, f.ShopErr
	}
	return &goshopify.Shop{Domain: session.ShopDomain}, nil
}

func (f *FakeShopify) ListProducts(_ context.Context, session domain.StoreSession, cursor ports.PageCursor) ([]goshopify.Product, ports.PageCursor, error) {
	if err := f.record("list_products", session, cursor); err != nil {
		return nil, "", err
	}
	items, next := page(f.Products, cursor)
	return items, next, nil
}

func (f *FakeShopify) ListOrders(_ context.Context, session domain.StoreSession, cursor ports.PageCursor) ([]goshopify.Order, ports.PageCursor, error) {
	if err := f.record("list_orders", session, cursor); err != nil {
		return nil, "", err
	}
	items, next := page(f.Orders, cursor)
	return items, next, nil
}

func (f *FakeShopify) ListCustomers(_ context.Context, session domain.StoreSession, cursor ports.PageCursor) ([]goshopify.Customer, ports.PageCursor, error) {
	if err := f.record("list_customers", session, cursor); err != nil {
		return nil, "", err
	}
	items, next := page(f.Customers, cursor)
	return items, next, nil
}

func page[T any](pages [][]T, cursor ports.PageCursor) ([]T, ports.PageCursor) {
	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(string(cursor))
	}
	if idx >= len(pages) {
		return nil, ""
	}
	var next ports.PageCursor
	if idx+1 < len(pages) {
		next = ports.PageCursor(strconv.Itoa(idx + 1))
	}
	return pages[idx], next
}
