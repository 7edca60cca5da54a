package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"
	"shopify-insights-layer/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	topic string
	fn    func(ctx context.Context) error
	calls int
}

func (h *stubHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *stubHandler) Handle(ctx context.Context, _ *domain.WebhookEvent) error {
	h.calls++
	return h.fn(ctx)
}

type mapDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	lookErr error
}

func (d *mapDeduper) Seen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[id], d.lookErr
}

func (d *mapDeduper) Mark(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[id] = true
	return nil
}

type auditSpy struct {
	logged []string
	err    error
}

func (a *auditSpy) LogWebhook(_ context.Context, event *domain.WebhookEvent) error {
	a.logged = append(a.logged, event.ID)
	return a.err
}

func newWebhookService(h *stubHandler, deduper ports.WebhookDeduper, audit ports.WebhookAuditLog, timeout time.Duration) (*WebhookService, *testutil.MetricsSpy) {
	metrics := testutil.NewMetricsSpy()
	dispatcher := NewWebhookDispatcher(testutil.Logger())
	dispatcher.RegisterHandler(h)
	return NewWebhookService(dispatcher, deduper, audit, metrics, testutil.Logger(), timeout), metrics
}

func delivery(id, topic string) *domain.WebhookEvent {
	return &domain.WebhookEvent{ID: id, Topic: topic, Shop: testShop, Payload: []byte(`{}`), Verified: true}
}

func TestProcessMarksAndSkipsDuplicates(t *testing.T) {
	h := &stubHandler{topic: domain.TopicOrdersCreate, fn: func(context.Context) error { return nil }}
	deduper := &mapDeduper{seen: map[string]bool{}}
	audit := &auditSpy{}
	svc, metrics := newWebhookService(h, deduper, audit, time.Second)
	ctx := context.Background()

	event := delivery("wh-1", domain.TopicOrdersCreate)
	outcome, err := svc.Process(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome)
	assert.False(t, event.ReceivedAt.IsZero())
	assert.True(t, deduper.seen["wh-1"])

	outcome, err = svc.Process(ctx, delivery("wh-1", domain.TopicOrdersCreate))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, h.calls)
	assert.Equal(t, []string{"wh-1"}, audit.logged)

	assert.Equal(t, 1, metrics.Webhooks["orders/create/ok"])
	assert.Equal(t, 1, metrics.Webhooks["orders/create/duplicate"])
}

func TestProcessToleratesSideStoreFailures(t *testing.T) {
	h := &stubHandler{topic: domain.TopicOrdersCreate, fn: func(context.Context) error { return nil }}
	deduper := &mapDeduper{seen: map[string]bool{}, lookErr: errors.New("redis down")}
	audit := &auditSpy{err: errors.New("mongo down")}
	svc, _ := newWebhookService(h, deduper, audit, time.Second)

	outcome, err := svc.Process(context.Background(), delivery("wh-2", domain.TopicOrdersCreate))
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, outcome)
	assert.Equal(t, 1, h.calls)
}

func TestProcessOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		topic   string
		err     error
		outcome string
	}{
		{"unknown tenant", domain.TopicOrdersCreate, domain.ErrUnknownTenant, OutcomeIgnored},
		{"malformed", domain.TopicOrdersCreate, fmt.Errorf("%w: bad json", domain.ErrMalformedPayload), OutcomeIgnored},
		{"unsupported topic", "carts/update", nil, OutcomeIgnored},
		{"store failure", domain.TopicOrdersCreate, errors.New("database is locked"), OutcomeUnprocessed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &stubHandler{topic: domain.TopicOrdersCreate, fn: func(context.Context) error { return tc.err }}
			deduper := &mapDeduper{seen: map[string]bool{}}
			svc, metrics := newWebhookService(h, deduper, nil, time.Second)

			outcome, err := svc.Process(context.Background(), delivery("wh-3", tc.topic))
			require.Error(t, err)
			assert.Equal(t, tc.outcome, outcome)
			assert.False(t, deduper.seen["wh-3"], "only processed deliveries are remembered")
			assert.Equal(t, 1, metrics.Webhooks[tc.topic+"/"+tc.outcome])
		})
	}
}

func TestProcessTimesOut(t *testing.T) {
	h := &stubHandler{topic: domain.TopicOrdersCreate, fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	svc, metrics := newWebhookService(h, nil, nil, 20*time.Millisecond)

	outcome, err := svc.Process(context.Background(), delivery("", domain.TopicOrdersCreate))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OutcomeUnprocessed, outcome)
	assert.Equal(t, 1, metrics.Webhooks["orders/create/unprocessed"])
}
