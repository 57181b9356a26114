// Package ingest bulk loads establishment records from a CSV export into a
// store, in sequential chunks, and indexes the result.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"siret-api/internal/company/metrics"
	"siret-api/internal/company/models"
)

// Defaults sized for the national establishment export.
const (
	DefaultChunkSize      = 1_000_000
	DefaultExpectedChunks = 34
)

// Sink receives the loaded chunks. Every store adapter and the Postgres bulk
// writer satisfy it.
type Sink interface {
	InsertMany(ctx context.Context, docs []models.Document) error
	CreateIndex(ctx context.Context, field string, unique bool) error
}

// Summary reports what a run wrote.
type Summary struct {
	Rows           int
	Chunks         int
	IgnoredColumns []string
}

// Pipeline loads one CSV stream. Chunks are written one after another; the
// first failure aborts the run.
type Pipeline struct {
	sink           Sink
	chunkSize      int
	expectedChunks int
	unique         bool
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Pipeline)

func WithChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// WithExpectedChunks sets the denominator of the progress log.
func WithExpectedChunks(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.expectedChunks = n
		}
	}
}

// WithUniqueIndex selects a unique (default) or plain siret index.
func WithUniqueIndex(unique bool) Option {
	return func(p *Pipeline) {
		p.unique = unique
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a Pipeline writing to sink.
func New(sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:           sink,
		chunkSize:      DefaultChunkSize,
		expectedChunks: DefaultExpectedChunks,
		unique:         true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// column maps a CSV column to a record field.
type column struct {
	index    int
	field    string
	identity bool
}

// Run reads r to the end, writing every chunk, then creates the siret index once.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (Summary, error) {
	var sum Summary

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return sum, errors.New("source is empty: no header row")
		}
		return sum, fmt.Errorf("read header: %w", err)
	}

	cols, ignored, err := mapHeader(header)
	if err != nil {
		return sum, err
	}
	sum.IgnoredColumns = ignored
	if len(ignored) > 0 {
		p.logger.WarnContext(ctx, "ignoring unknown columns", "columns", ignored)
	}

	chunk := make([]models.Document, 0, min(p.chunkSize, 1<<16))
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return sum, fmt.Errorf("read line %d: %w", line, err)
		}

		doc, err := toDocument(cols, record)
		if err != nil {
			return sum, fmt.Errorf("line %d: %w", line, err)
		}
		chunk = append(chunk, doc)

		if len(chunk) == p.chunkSize {
			if err := p.flush(ctx, chunk, &sum); err != nil {
				return sum, err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		if err := p.flush(ctx, chunk, &sum); err != nil {
			return sum, err
		}
	}

	if err := p.sink.CreateIndex(ctx, models.FieldSiret, p.unique); err != nil {
		return sum, fmt.Errorf("create %s index: %w", models.FieldSiret, err)
	}
	p.logger.InfoContext(ctx, "ingestion complete",
		"rows", sum.Rows,
		"chunks", sum.Chunks,
		"unique_index", p.unique,
	)
	return sum, nil
}

func (p *Pipeline) flush(ctx context.Context, chunk []models.Document, sum *Summary) error {
	if err := p.sink.InsertMany(ctx, chunk); err != nil {
		return fmt.Errorf("write chunk %d: %w", sum.Chunks+1, err)
	}
	sum.Chunks++
	sum.Rows += len(chunk)
	if p.metrics != nil {
		p.metrics.AddIngestedRows(len(chunk))
	}
	p.logger.InfoContext(ctx, fmt.Sprintf("chunk %d/%d", sum.Chunks, p.expectedChunks),
		"rows", len(chunk),
	)
	return nil
}

func mapHeader(header []string) ([]column, []string, error) {
	var cols []column
	var ignored []string
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if !models.IsField(name) {
			ignored = append(ignored, name)
			continue
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		cols = append(cols, column{index: i, field: name, identity: models.IsIdentityField(name)})
	}
	for _, f := range []string{models.FieldSiret, models.FieldSiren, models.FieldNic} {
		if !seen[f] {
			return nil, nil, fmt.Errorf("missing required column %q", f)
		}
	}
	return cols, ignored, nil
}

func toDocument(cols []column, record []string) (models.Document, error) {
	doc := make(models.Document, len(cols))
	for _, c := range cols {
		raw := record[c.index]
		if !c.identity {
			doc[c.field] = raw
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q is not an integer", c.field, raw)
		}
		doc[c.field] = v
	}
	return doc, nil
}
