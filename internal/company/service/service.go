package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"siret-api/internal/company/metrics"
	"siret-api/internal/company/models"
	dErrors "siret-api/pkg/domain-errors"
	"siret-api/pkg/platform/sentinel"
	"siret-api/pkg/requestcontext"
)

// Client-facing messages.
const (
	msgNotFoundFmt  = "Siret code : %d -> not found"
	msgAbsentFmt    = "The corporate with %d siret code doesn't exist"
	msgExistsFmt    = "A company with %d siret code already exists"
	msgInconsistent = "Inputs entered are not consistent. Siret must be composed of the siren number and the nic number."
	msgInsertFailed = "The insertion doesn't work"
	msgUpdateFailed = "The update doesn't work"
	msgDeleteFailed = "The deletion doesn't work"
	msgInternal     = "Internal Server Error"
	MsgInserted     = "The insertion proceed correctly"
	MsgUpdated      = "The update proceed correctly"
	MsgDeleted      = "The deletion proceed correctly"
)

type Store interface {
	FindBySiret(ctx context.Context, siret int64) ([]models.Document, error)
	Insert(ctx context.Context, e *models.Establishment) error
	ReplaceAttributes(ctx context.Context, siret int64, attrs models.Attributes) error
	Delete(ctx context.Context, siret int64) (int64, error)
	CreateIndex(ctx context.Context, field string, unique bool) error
}

type Publisher interface {
	Publish(ctx context.Context, ev models.ChangeEvent) error
}

// Service implements the registry's CRUD protocol on top of a Store.
// It keeps no state of its own; concurrent calls are safe as long as the store is.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPublisher emits a change event after every applied write.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("siret-api/internal/company/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the unique siret index. It fails when the store already
// holds duplicate identifiers.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	if err := s.store.CreateIndex(ctx, models.FieldSiret, true); err != nil {
		return fmt.Errorf("ensure unique %s index: %w", models.FieldSiret, err)
	}
	return nil
}

// Fetch returns every record stored under siret, rendered as text.
func (s *Service) Fetch(ctx context.Context, siret int64) (_ []models.Rendered, err error) {
	ctx, finish := s.begin(ctx, metrics.OpFetch, siret)
	defer func() { finish(err) }()

	docs, err := s.store.FindBySiret(ctx, siret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, msgInternal)
	}
	if len(docs) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf(msgNotFoundFmt, siret))
	}

	out := make([]models.Rendered, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.Render(doc))
	}
	return out, nil
}

// Create inserts a new establishment after checking that its identifier is free
// and consistent, then confirms the write by reading it back.
func (s *Service) Create(ctx context.Context, e *models.Establishment) (err error) {
	ctx, finish := s.begin(ctx, metrics.OpCreate, e.Siret)
	defer func() { finish(err) }()

	existing, err := s.store.FindBySiret(ctx, e.Siret)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, msgInternal)
	}
	if len(existing) > 0 {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(msgExistsFmt, e.Siret))
	}
	if !models.IsConsistent(e.Siret, e.Siren, e.Nic) {
		return dErrors.New(dErrors.CodeValidation, msgInconsistent)
	}

	if err := s.store.Insert(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf(msgExistsFmt, e.Siret))
		}
		return dErrors.Wrap(err, dErrors.CodePersistence, msgInsertFailed)
	}

	confirmed, err := s.store.FindBySiret(ctx, e.Siret)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, msgInsertFailed)
	}
	if len(confirmed) != 1 {
		s.logger.WarnContext(ctx, "insert not confirmed",
			"request_id", requestcontext.RequestID(ctx),
			"siret", e.Siret,
			"records", len(confirmed),
		)
		return dErrors.New(dErrors.CodePersistence, msgInsertFailed)
	}

	s.logger.InfoContext(ctx, "company created",
		"request_id", requestcontext.RequestID(ctx),
		"siret", e.Siret,
	)
	s.publish(ctx, models.ChangeEvent{Kind: models.ChangeCreated, Siret: e.Siret, Attributes: e.Attributes.ToMap()})
	return nil
}

// Update replaces every attribute of the record stored under siret. Identity
// fields are never touched.
func (s *Service) Update(ctx context.Context, siret int64, attrs models.Attributes) (err error) {
	ctx, finish := s.begin(ctx, metrics.OpUpdate, siret)
	defer func() { finish(err) }()

	existing, err := s.store.FindBySiret(ctx, siret)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, msgInternal)
	}
	if len(existing) == 0 {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf(msgAbsentFmt, siret))
	}

	if err := s.store.ReplaceAttributes(ctx, siret, attrs); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf(msgAbsentFmt, siret))
		}
		return dErrors.Wrap(err, dErrors.CodePersistence, msgUpdateFailed)
	}

	s.logger.InfoContext(ctx, "company updated",
		"request_id", requestcontext.RequestID(ctx),
		"siret", siret,
	)
	s.publish(ctx, models.ChangeEvent{Kind: models.ChangeUpdated, Siret: siret, Attributes: attrs.ToMap()})
	return nil
}

// Delete removes the record stored under siret. Anything other than exactly one
// removed record is reported as a failed deletion.
func (s *Service) Delete(ctx context.Context, siret int64) (err error) {
	ctx, finish := s.begin(ctx, metrics.OpDelete, siret)
	defer func() { finish(err) }()

	existing, err := s.store.FindBySiret(ctx, siret)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, msgInternal)
	}
	if len(existing) == 0 {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf(msgAbsentFmt, siret))
	}

	removed, err := s.store.Delete(ctx, siret)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, msgDeleteFailed)
	}
	if removed != 1 {
		return dErrors.New(dErrors.CodePersistence, msgDeleteFailed)
	}

	s.logger.InfoContext(ctx, "company deleted",
		"request_id", requestcontext.RequestID(ctx),
		"siret", siret,
	)
	s.publish(ctx, models.ChangeEvent{Kind: models.ChangeDeleted, Siret: siret})
	return nil
}

// begin opens a span and returns a finisher recording the outcome.
func (s *Service) begin(ctx context.Context, op string, siret int64) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "company."+op, trace.WithAttributes(
		attribute.Int64("company.siret", siret),
	))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.SetAttributes(attribute.String("company.outcome", outcome))
			if outcome == string(dErrors.CodeInternal) {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				s.logger.ErrorContext(ctx, "registry lookup failed",
					"request_id", requestcontext.RequestID(ctx),
					"operation", op,
					"siret", siret,
					"error", err,
				)
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, outcome, start)
		}
		span.End()
	}
}

// publish hands the event to the publisher. Failures are logged and never
// change the outcome of the write that produced the event.
func (s *Service) publish(ctx context.Context, ev models.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish change event",
			"request_id", requestcontext.RequestID(ctx),
			"kind", ev.Kind,
			"siret", ev.Siret,
			"error", err,
		)
	}
}
