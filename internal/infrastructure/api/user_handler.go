package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
)

type userHandler struct {
	accounts AccountService
	sync     Syncer
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (req *registerRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (req *loginRequest) normalize() {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
}

type connectRequest struct {
	ShopDomain  string `json:"shopDomain" validate:"required"`
	AccessToken string `json:"accessToken" validate:"required"`
}

func (req *connectRequest) normalize() {
	req.ShopDomain = strings.TrimSpace(req.ShopDomain)
	req.AccessToken = strings.TrimSpace(req.AccessToken)
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeRequest(r, &req); err != nil {
		rejectRequest(w, r, err, "Invalid register request")
		return
	}
	res, err := h.accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err, "Failed to register tenant")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *userHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(r, &req); err != nil {
		rejectRequest(w, r, err, "Invalid login request")
		return
	}
	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err, "Failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *userHandler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	tenant, err := h.accounts.Get(r.Context(), p.TenantID)
	if err != nil {
		fail(w, r, err, "Failed to load tenant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        tenant,
		"isConnected": tenant.IsConnected(),
		"shopDomain":  tenant.Shop(),
	})
}

// connect links the store and runs the first import. A failed import does
// not undo the link; the response reports it and a manual sync can retry.
func (h *userHandler) connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeRequest(r, &req); err != nil {
		rejectRequest(w, r, err, "Invalid connection request")
		return
	}
	p, _ := PrincipalFrom(r.Context())
	tenant, err := h.accounts.ConnectStore(r.Context(), p.TenantID, req.ShopDomain, req.AccessToken)
	if err != nil {
		fail(w, r, err, "Failed to connect store")
		return
	}

	resp := map[string]any{
		"success":     true,
		"isConnected": true,
		"shopDomain":  tenant.Shop(),
	}
	counts, err := h.sync.Sync(r.Context(), p.TenantID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("tenantId", p.TenantID).Msg("Initial store sync failed")
		_, text := statusFor(err)
		resp["synced"] = false
		resp["syncError"] = text
	} else {
		resp["synced"] = true
		resp["counts"] = counts
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *userHandler) disconnect(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	if err := h.accounts.DisconnectStore(r.Context(), p.TenantID); err != nil {
		fail(w, r, err, "Failed to disconnect store")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "isConnected": false})
}
