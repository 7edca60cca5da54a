package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "tenant-events"
	producerName = "shopify-insights-layer"
)

var (
	ErrProducerBusy   = errors.New("kafka producer buffer full")
	ErrProducerClosed = errors.New("kafka producer closed")
)

// Envelope wraps every message written to the tenant event topic
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventProducer streams tenant events to Kafka from a buffered inbox
type EventProducer struct {
	w       messageWriter
	inbox   chan kafkago.Message
	closeCh chan struct{}
	mu      sync.RWMutex
	closed  bool
	logger  zerolog.Logger
}

var _ ports.TenantEventPublisher = (*EventProducer)(nil)

// NewEventProducer creates a producer for topic on brokers
func NewEventProducer(brokers []string, topic string, buf int, logger zerolog.Logger) *EventProducer {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newEventProducer(w, buf, logger)
}

func newEventProducer(w messageWriter, buf int, logger zerolog.Logger) *EventProducer {
	if buf <= 0 {
		buf = 1024
	}
	return &EventProducer{
		w:       w,
		inbox:   make(chan kafkago.Message, buf),
		closeCh: make(chan struct{}),
		logger:  logger,
	}
}

// Start runs the write loop until ctx is cancelled or Close is called,
// then flushes what is left in the inbox.
func (p *EventProducer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				for m := range p.inbox {
					p.write(context.Background(), m)
				}
				p.closeWriter()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.closeWriter()
					return
				}
				p.write(ctx, m)
			}
		}
	}()
}

func (p *EventProducer) write(ctx context.Context, m kafkago.Message) {
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error().Err(err).Str("key", string(m.Key)).Msg("Failed to write tenant event to kafka")
	}
}

func (p *EventProducer) closeWriter() {
	if err := p.w.Close(); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to close kafka writer")
	}
}

// PublishTenantEvent enqueues the event; it never waits on the broker
func (p *EventProducer) PublishTenantEvent(ctx context.Context, event domain.TenantEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tenant event: %w", err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     event.Type,
		OccurredAt:    event.OccurredAt,
		Producer:      producerName,
		CorrelationID: event.OrderID,
		Payload:       payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.TenantID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafkago.Header{
			{Key: "x-event-type", Value: []byte(event.Type)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrProducerBusy
	}
}

// Close stops accepting events
func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the write loop has flushed and exited
func (p *EventProducer) WaitClosed() {
	<-p.closeCh
}
