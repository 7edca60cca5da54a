// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "insights"

// Recorder records service metrics into a private registry
type Recorder struct {
	registry        *prometheus.Registry
	webhooks        *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	syncItems       *prometheus.CounterVec
	vendorCalls     *prometheus.HistogramVec
}

var _ ports.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries by topic and outcome.",
		}, []string{"topic", "outcome"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Order reconciliations by source and customer result.",
		}, []string{"source", "result"}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_items_total",
			Help:      "Items imported by full syncs.",
		}, []string{"kind"}),
		vendorCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vendor_call_duration_seconds",
			Help:      "Latency of Shopify Admin API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
	}

	registry.MustRegister(
		r.webhooks,
		r.reconciliations,
		r.syncItems,
		r.vendorCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Reconciled(source domain.ReconcileSource, result string) {
	r.reconciliations.WithLabelValues(string(source), result).Inc()
}

func (r *Recorder) WebhookHandled(topic, outcome string) {
	r.webhooks.WithLabelValues(topic, outcome).Inc()
}

func (r *Recorder) SyncedItems(kind string, n int) {
	if n <= 0 {
		return
	}
	r.syncItems.WithLabelValues(kind).Add(float64(n))
}

func (r *Recorder) VendorCall(op string, seconds float64, err error) {
	status := "ok"
	switch {
	case err == nil:
	case domain.NeedsReauthorization(err):
		status = "unauthorized"
	case domain.IsRetryable(err):
		status = "retryable"
	default:
		status = "error"
	}
	r.vendorCalls.WithLabelValues(op, status).Observe(seconds)
}

// Nop discards all metrics
type Nop struct{}

func (Nop) Reconciled(domain.ReconcileSource, string) {}
func (Nop) WebhookHandled(string, string)             {}
func (Nop) SyncedItems(string, int)                   {}
func (Nop) VendorCall(string, float64, error)         {}
