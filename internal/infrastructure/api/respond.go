package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopify-insights-layer/internal/domain"

	"github.com/rs/zerolog/hlog"
)

const reauthorizeMessage = "Shopify authentication failed. Please reconnect your store."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP responses
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMalformedPayload),
		errors.Is(err, domain.ErrInvalidShopDomain):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrStoreNotConnected):
		return http.StatusBadRequest, "Shopify store not connected"
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrShopAlreadyLinked):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrTenantNotFound):
		return http.StatusNotFound, err.Error()
	case domain.NeedsReauthorization(err):
		return http.StatusUnauthorized, reauthorizeMessage
	case domain.IsRetryable(err):
		return http.StatusServiceUnavailable, "Shopify is temporarily unavailable, try again later"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail writes the mapped error and logs server-side failures
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, text := statusFor(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg(msg)
	} else {
		hlog.FromRequest(r).Debug().Err(err).Int("status", status).Msg(msg)
	}
	writeError(w, status, text)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(domain.ErrMalformedPayload, err)
	}
	return nil
}
