package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-insights-layer/graph"
	"shopify-insights-layer/internal/application"
	"shopify-insights-layer/internal/application/webhook_handlers"
	"shopify-insights-layer/internal/config"
	"shopify-insights-layer/internal/infrastructure/api"
	"shopify-insights-layer/internal/infrastructure/auth"
	"shopify-insights-layer/internal/infrastructure/encryption"
	"shopify-insights-layer/internal/infrastructure/kafka"
	"shopify-insights-layer/internal/infrastructure/metrics"
	"shopify-insights-layer/internal/infrastructure/pubsub"
	"shopify-insights-layer/internal/infrastructure/redisx"
	"shopify-insights-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-insights-layer/internal/infrastructure/shopify"
	"shopify-insights-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	config.LoadDotenv(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger = logger.Level(cfg.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Relational store
	db, closeDB, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer closeDB()
	if cfg.DBAutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	recorder := metrics.NewRecorder()
	hub := pubsub.NewTenantHub(logger)
	g, gctx := errgroup.WithContext(ctx)

	// Realtime fan-out. With Redis every instance receives events through the relay.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redisx.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
	}

	publishers := pubsub.Fanout{}
	if cfg.RealtimeBackend == config.RealtimeRedis {
		publishers = append(publishers, redisx.NewBroadcaster(redisClient, logger))
		relay := redisx.NewRelay(redisClient, hub, logger)
		g.Go(func() error { return relay.Run(gctx) })
	} else {
		publishers = append(publishers, hub)
	}

	var producer *kafka.EventProducer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 1024, logger)
		producer.Start(gctx)
		publishers = append(publishers, producer)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Kafka event stream enabled")
	}

	var deduper ports.WebhookDeduper
	if redisClient != nil {
		deduper = redisx.NewDeduper(redisClient, cfg.WebhookDedupTTL)
	}

	// Optional webhook audit log
	var audit ports.WebhookAuditLog
	var feed api.WebhookFeed
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer mongoClient.Disconnect(context.Background())

		webhookLog := repository.NewMongoWebhookLog(mongoClient.Database(cfg.MongoDatabase))
		if err := webhookLog.EnsureIndexes(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to create webhook log indexes")
		}
		audit, feed = webhookLog, webhookLog
	}

	// Repositories
	tenantRepo := repository.NewTenantRepository(db)
	reconcileStore := repository.NewReconcileStore(db)
	statsRepo := repository.NewStatsRepository(db)

	// Shopify adapter
	rateLimiter := shopifyinfra.NewRateLimiter(cfg.ShopifyRateLimit, 4, logger)
	shopifyClient := shopifyinfra.NewClient(shopifyinfra.ClientConfig{
		APIKey:     cfg.ShopifyAPIKey,
		APISecret:  cfg.ShopifyAPISecret,
		APIVersion: cfg.ShopifyAPIVersion,
		Retries:    cfg.ShopifyRetries,
		HTTPClient: &http.Client{Timeout: cfg.ShopifyCallTimeout},
	}, rateLimiter, logger)

	// Application services
	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiration, "shopify-insights-layer")
	reconciler := application.NewReconciler(reconcileStore, tenantRepo, publishers, recorder, logger)
	sessions := application.NewSessionProvider(encryptionService)
	tenantService := application.NewTenantService(
		tenantRepo,
		auth.NewBcryptHasher(0),
		tokens,
		encryptionService,
		shopifyClient,
		logger,
		cfg.ShopifyCallTimeout,
	)
	syncService := application.NewSyncService(tenantRepo, sessions, shopifyClient, reconciler, recorder, logger, cfg.ShopifyCallTimeout)
	statsService := application.NewStatsService(tenantRepo, statsRepo, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(reconciler, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewProductHandler(reconciler, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(reconciler, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(tenantService, logger))
	webhookService := application.NewWebhookService(webhookDispatcher, deduper, audit, recorder, logger, cfg.WebhookProcessTimeout)

	// GraphQL shares the services and the realtime hub with REST
	gqlHandler := graph.NewHandler(graph.NewResolver(statsService, tenantService, hub, logger))

	router := api.NewRouter(api.Deps{
		Accounts:    tenantService,
		Sync:        syncService,
		Stats:       statsService,
		Webhooks:    webhookService,
		Verifier:    shopifyinfra.NewWebhookVerifier(cfg.ShopifyAPISecret),
		Feed:        feed,
		Events:      hub,
		GraphQL:     gqlHandler,
		Tokens:      tokens,
		Metrics:     recorder.Handler(),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		MaxBodySize: cfg.WebhookMaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info().Msg("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
	}
	if producer != nil {
		producer.WaitClosed()
	}
	logger.Info().Msg("Server stopped")
}
