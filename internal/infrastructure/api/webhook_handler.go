package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"

	"github.com/rs/zerolog/hlog"
)

const (
	headerHmac       = "X-Shopify-Hmac-Sha256"
	headerTopic      = "X-Shopify-Topic"
	headerShopDomain = "X-Shopify-Shop-Domain"
	headerWebhookID  = "X-Shopify-Webhook-Id"
)

type webhookHandler struct {
	processor WebhookProcessor
	verifier  SignatureVerifier
	maxBody   int64
}

// forTopic returns a handler for deliveries; an empty topic is read from
// the topic header.
func (h *webhookHandler) forTopic(fixedTopic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
				return
			}
			log.Error().Err(err).Msg("Failed to read webhook payload")
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		if err := h.verifier.Verify(payload, r.Header.Get(headerHmac)); err != nil {
			if errors.Is(err, domain.ErrInvalidSignature) {
				log.Warn().Err(err).Msg("Webhook signature verification failed")
				writeError(w, http.StatusUnauthorized, "invalid signature")
				return
			}
			log.Error().Err(err).Msg("Webhook verification unavailable")
			writeError(w, http.StatusInternalServerError, "webhook verification unavailable")
			return
		}

		topic := fixedTopic
		if topic == "" {
			topic = r.Header.Get(headerTopic)
		}
		if topic == "" {
			writeError(w, http.StatusBadRequest, "missing "+headerTopic+" header")
			return
		}

		event := &domain.WebhookEvent{
			ID:         r.Header.Get(headerWebhookID),
			Topic:      topic,
			Shop:       shopOf(r, payload),
			Payload:    payload,
			Verified:   true,
			ReceivedAt: time.Now().UTC(),
		}

		outcome, err := h.processor.Process(r.Context(), event)
		resp := map[string]string{"status": outcome}
		if outcome == application.OutcomeIgnored && err != nil {
			resp["reason"] = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// shopOf prefers the shop header and falls back to the payload's domain fields
func shopOf(r *http.Request, payload []byte) string {
	if shop := r.Header.Get(headerShopDomain); shop != "" {
		return domain.NormalizeShopDomain(shop)
	}
	var body struct {
		Domain      string `json:"domain"`
		ShopDomain  string `json:"shop_domain"`
		MyshopifyDn string `json:"myshopify_domain"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	for _, s := range []string{body.MyshopifyDn, body.ShopDomain, body.Domain} {
		if s != "" {
			return domain.NormalizeShopDomain(s)
		}
	}
	return ""
}
