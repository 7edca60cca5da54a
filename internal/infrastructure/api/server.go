package api

import (
	"context"
	"net/http"
	"time"

	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/infrastructure/pubsub"
	"shopify-insights-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// AccountService manages tenants and their store link
type AccountService interface {
	Register(ctx context.Context, email, password string) (*application.AuthResult, error)
	Login(ctx context.Context, email, password string) (*application.AuthResult, error)
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	ConnectStore(ctx context.Context, tenantID, shopDomain, accessToken string) (*domain.Tenant, error)
	DisconnectStore(ctx context.Context, tenantID string) error
}

// Syncer runs a full store import
type Syncer interface {
	Sync(ctx context.Context, tenantID string) (domain.SyncCounts, error)
}

// StatsReader serves the dashboard aggregates
type StatsReader interface {
	Stats(ctx context.Context, tenantID string, q domain.StatsQuery) (*domain.Stats, error)
}

// WebhookProcessor handles verified deliveries
type WebhookProcessor interface {
	Process(ctx context.Context, event *domain.WebhookEvent) (string, error)
}

// SignatureVerifier checks a webhook body against its signature header
type SignatureVerifier interface {
	Verify(body []byte, signature string) error
}

// WebhookFeed lists logged deliveries
type WebhookFeed interface {
	ListRecent(ctx context.Context, shop string, limit int64) ([]*domain.WebhookEvent, error)
}

// EventSubscriber opens realtime subscriptions
type EventSubscriber interface {
	Subscribe(ctx context.Context, tenantID string) *pubsub.Subscription
}

// Deps are the services behind the router. Feed, GraphQL and Metrics may be nil.
type Deps struct {
	Accounts    AccountService
	Sync        Syncer
	Stats       StatsReader
	Webhooks    WebhookProcessor
	Verifier    SignatureVerifier
	Feed        WebhookFeed
	Events      EventSubscriber
	GraphQL     http.Handler
	Tokens      ports.TokenIssuer
	Metrics     http.Handler
	Logger      zerolog.Logger
	CORSOrigins []string
	MaxBodySize int64
	SwaggerFile string
}

// NewRouter builds the HTTP router
func NewRouter(d Deps) http.Handler {
	if d.MaxBodySize <= 0 {
		d.MaxBodySize = 1 << 20
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}
	if d.SwaggerFile == "" {
		d.SwaggerFile = "./docs/swagger.json"
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(d.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, d.SwaggerFile)
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	users := &userHandler{accounts: d.Accounts, sync: d.Sync}
	data := &dataHandler{accounts: d.Accounts, sync: d.Sync, stats: d.Stats, feed: d.Feed}
	hooks := &webhookHandler{processor: d.Webhooks, verifier: d.Verifier, maxBody: d.MaxBodySize}
	realtime := &realtimeHandler{events: d.Events, logger: d.Logger}

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", users.register)
		r.Post("/user/login", users.login)
		r.Post("/webhooks/orders/create", hooks.forTopic(domain.TopicOrdersCreate))

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Tokens))

			r.Get("/user/me", users.me)
			r.Put("/shopify/connection", users.connect)
			r.Delete("/shopify/connection", users.disconnect)

			r.Post("/data/sync", data.syncStore)
			r.Get("/data/stats", data.getStats)
			r.Get("/data/webhooks", data.recentWebhooks)

			r.Get("/realtime", realtime.serve)
			if d.GraphQL != nil {
				r.Handle("/graphql", d.GraphQL)
			}
		})
	})
	r.Post("/webhooks/shopify", hooks.forTopic(""))

	return r
}
