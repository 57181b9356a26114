package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"siret-api/internal/company/models"
	"siret-api/pkg/platform/sentinel"
)

// PostgresBulkWriter loads ingestion chunks with COPY. It only serves the
// offline pipeline: InsertMany and CreateIndex.
type PostgresBulkWriter struct {
	conn *pgx.Conn
}

// NewPostgresBulkWriter wraps a dedicated pgx connection.
func NewPostgresBulkWriter(conn *pgx.Conn) *PostgresBulkWriter {
	return &PostgresBulkWriter{conn: conn}
}

// EnsureSchema creates the registry table when missing.
func (w *PostgresBulkWriter) EnsureSchema(ctx context.Context) error {
	if _, err := w.conn.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create %s table: %w", TableName, err)
	}
	return nil
}

func (w *PostgresBulkWriter) InsertMany(ctx context.Context, docs []models.Document) error {
	rows := make([][]any, 0, len(docs))
	for _, doc := range docs {
		row, err := rowValues(doc)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	n, err := w.conn.CopyFrom(ctx, pgx.Identifier{TableName}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("copy chunk: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("copy chunk: %w", err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy chunk: wrote %d of %d rows", n, len(rows))
	}
	return nil
}

func (w *PostgresBulkWriter) CreateIndex(ctx context.Context, field string, unique bool) error {
	if err := checkIndexField(field); err != nil {
		return err
	}
	if _, err := w.conn.Exec(ctx, indexDDL(field, unique)); err != nil {
		if isPgUniqueViolation(err) {
			return fmt.Errorf("index on %s: %w", field, sentinel.ErrConflict)
		}
		return fmt.Errorf("index on %s: %w", field, err)
	}
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == string(uniqueViolation)
}
