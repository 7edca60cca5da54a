package api

import (
	"context"
	"net/http"
	"strings"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom returns the authenticated caller stored by RequireAuth
func PrincipalFrom(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*domain.Principal)
	return p, ok && p != nil
}

// RequireAuth accepts a bearer token or a token query parameter.
// Missing tokens get 401, invalid ones 403.
func RequireAuth(tokens ports.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			principal, err := tokens.Parse(raw)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("Rejected session token")
				writeError(w, http.StatusForbidden, "invalid or expired token")
				return
			}

			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("tenantId", principal.TenantID)
			})
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
