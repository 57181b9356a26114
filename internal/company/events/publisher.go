// Package events publishes registry change events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"siret-api/internal/company/metrics"
	"siret-api/internal/company/models"
	"siret-api/pkg/platform/circuit"
)

// Header names carried by every record.
const (
	HeaderEventID = "event_id"
	HeaderKind    = "kind"
)

// DefaultPublishTimeout bounds how long a write waits for the broker.
const DefaultPublishTimeout = 5 * time.Second

// ErrStreamUnavailable is returned without producing while the breaker is open.
var ErrStreamUnavailable = errors.New("change event stream unavailable")

// Message is the JSON value written for each change.
type Message struct {
	ID         string            `json:"id"`
	Kind       models.ChangeKind `json:"kind"`
	Siret      int64             `json:"siret"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes change events synchronously, keyed by siret so every
// change to one establishment lands on the same partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures the KafkaPublisher.
type Option func(*KafkaPublisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *KafkaPublisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *KafkaPublisher) {
		p.metrics = m
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *KafkaPublisher) {
		p.now = now
	}
}

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) Option {
	return func(p *KafkaPublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBreaker replaces the default breaker (3 failures, 30s cooldown).
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *KafkaPublisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

// NewKafkaPublisher creates a publisher writing to topic. An empty topic uses
// the producer's default topic.
func NewKafkaPublisher(producer Producer, topic string, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("kafka-change-events", circuit.WithFailureThreshold(3)),
		timeout:  DefaultPublishTimeout,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes one event and waits for the broker acknowledgement, at most
// the publish timeout. While the breaker is open the event is dropped.
func (p *KafkaPublisher) Publish(ctx context.Context, ev models.ChangeEvent) error {
	if !p.breaker.Allow() {
		if p.metrics != nil {
			p.metrics.IncrementEventsDropped()
		}
		return fmt.Errorf("drop %s: %w", ev.Kind, ErrStreamUnavailable)
	}

	msg := Message{
		ID:         uuid.NewString(),
		Kind:       ev.Kind,
		Siret:      ev.Siret,
		Attributes: ev.Attributes,
		OccurredAt: p.now().UTC(),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(ev.Siret, 10)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventID, Value: []byte(msg.ID)},
			{Key: HeaderKind, Value: []byte(msg.Kind)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.recordFailure(ctx, err)
		return fmt.Errorf("produce %s: %w", ev.Kind, err)
	}
	p.recordSuccess(ctx)
	return nil
}

// Healthy reports whether recent publishes have been succeeding.
func (p *KafkaPublisher) Healthy() bool {
	return !p.breaker.IsOpen()
}

// Check is a health check reporting the breaker state.
func (p *KafkaPublisher) Check(context.Context) error {
	if !p.Healthy() {
		return fmt.Errorf("breaker %s: %w", p.breaker.State(), ErrStreamUnavailable)
	}
	return nil
}

func (p *KafkaPublisher) recordFailure(ctx context.Context, err error) {
	if p.metrics != nil {
		p.metrics.IncrementEvents(false)
	}
	_, change := p.breaker.RecordFailure()
	if change.Opened {
		p.logger.WarnContext(ctx, "change event stream unavailable",
			"breaker", p.breaker.Name(),
			"error", err,
		)
	}
}

func (p *KafkaPublisher) recordSuccess(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.IncrementEvents(true)
	}
	_, change := p.breaker.RecordSuccess()
	if change.Closed {
		p.logger.InfoContext(ctx, "change event stream recovered", "breaker", p.breaker.Name())
	}
}
