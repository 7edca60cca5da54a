package api

import (
	"net/http"
	"strconv"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type dataHandler struct {
	accounts AccountService
	sync     Syncer
	stats    StatsReader
	feed     WebhookFeed
}

func (h *dataHandler) syncStore(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	counts, err := h.sync.Sync(r.Context(), p.TenantID)
	if err != nil {
		fail(w, r, err, "Store sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sync complete",
		"counts":  counts,
	})
}

func (h *dataHandler) getStats(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	qs := r.URL.Query()

	top := 0
	if v := qs.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "top must be an integer")
			return
		}
		top = n
	}

	q, err := application.ParseStatsQuery(qs.Get("startDate"), qs.Get("endDate"), top)
	if err != nil {
		fail(w, r, err, "Invalid stats query")
		return
	}
	stats, err := h.stats.Stats(r.Context(), p.TenantID, q)
	if err != nil {
		fail(w, r, err, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *dataHandler) recentWebhooks(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		writeError(w, http.StatusNotFound, "webhook log is not enabled")
		return
	}
	p, _ := PrincipalFrom(r.Context())
	tenant, err := h.accounts.Get(r.Context(), p.TenantID)
	if err != nil {
		fail(w, r, err, "Failed to load tenant")
		return
	}
	if !tenant.IsConnected() {
		fail(w, r, domain.ErrStoreNotConnected, "Store not connected")
		return
	}

	limit := int64(defaultFeedLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxFeedLimit)
	}

	events, err := h.feed.ListRecent(r.Context(), tenant.Shop(), limit)
	if err != nil {
		fail(w, r, err, "Failed to list webhooks")
		return
	}
	if events == nil {
		events = []*domain.WebhookEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"webhooks": events})
}
