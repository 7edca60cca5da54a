package application

import (
	"context"
	"errors"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Webhook outcomes reported to the vendor and to metrics
const (
	OutcomeOK          = "ok"
	OutcomeIgnored     = "ignored"
	OutcomeDuplicate   = "duplicate"
	OutcomeUnprocessed = "unprocessed"
)

// WebhookService processes verified webhook deliveries
type WebhookService struct {
	dispatcher     *WebhookDispatcher
	deduper        ports.WebhookDeduper
	audit          ports.WebhookAuditLog
	metrics        ports.MetricsRecorder
	logger         zerolog.Logger
	processTimeout time.Duration
}

// NewWebhookService creates a webhook service. deduper and audit may be nil.
func NewWebhookService(
	dispatcher *WebhookDispatcher,
	deduper ports.WebhookDeduper,
	audit ports.WebhookAuditLog,
	metrics ports.MetricsRecorder,
	logger zerolog.Logger,
	processTimeout time.Duration,
) *WebhookService {
	return &WebhookService{
		dispatcher:     dispatcher,
		deduper:        deduper,
		audit:          audit,
		metrics:        metrics,
		logger:         logger,
		processTimeout: processTimeout,
	}
}

// Process handles a verified delivery and returns its outcome.
// Every outcome is acknowledged to the vendor; the returned error carries
// the cause of an ignored or unprocessed delivery.
func (s *WebhookService) Process(ctx context.Context, event *domain.WebhookEvent) (string, error) {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	log := s.logger.With().Str("topic", event.Topic).Str("shop", event.Shop).Str("webhookId", event.ID).Logger()

	if s.deduper != nil && event.ID != "" {
		seen, err := s.deduper.Seen(ctx, event.ID)
		if err != nil {
			log.Warn().Err(err).Msg("Webhook dedupe lookup failed")
		} else if seen {
			s.metrics.WebhookHandled(event.Topic, OutcomeDuplicate)
			log.Debug().Msg("Duplicate webhook delivery")
			return OutcomeDuplicate, nil
		}
	}

	if s.audit != nil {
		if err := s.audit.LogWebhook(ctx, event); err != nil {
			log.Error().Err(err).Msg("Failed to log webhook")
		}
	}

	dctx := ctx
	if s.processTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.processTimeout)
		defer cancel()
	}

	err := s.dispatcher.Dispatch(dctx, event)
	outcome := OutcomeOK
	switch {
	case err == nil:
		if s.deduper != nil && event.ID != "" {
			if merr := s.deduper.Mark(ctx, event.ID); merr != nil {
				log.Warn().Err(merr).Msg("Failed to mark webhook as processed")
			}
		}
		log.Info().Msg("Webhook processed")
	case IsAcknowledgeable(err):
		outcome = OutcomeIgnored
		log.Info().Err(err).Msg("Webhook ignored")
	default:
		outcome = OutcomeUnprocessed
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error().Err(err).Dur("timeout", s.processTimeout).Msg("Webhook processing timed out")
		} else {
			log.Error().Err(err).Msg("Webhook processing failed")
		}
	}

	s.metrics.WebhookHandled(event.Topic, outcome)
	return outcome, err
}
