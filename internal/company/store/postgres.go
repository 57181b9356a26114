package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"siret-api/internal/company/models"
	"siret-api/pkg/platform/sentinel"
	"siret-api/pkg/platform/tx"
)

// TableName is the relational home of the registry.
const TableName = "companies"

const uniqueViolation = pq.ErrorCode("23505")

// columns lists the table columns in canonical field order.
var columns = models.Fields()

var (
	quotedColumns = func() string {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			quoted[i] = pq.QuoteIdentifier(c)
		}
		return strings.Join(quoted, ", ")
	}()

	// Attribute columns keep the camelCase wire names, hence the quoting.
	schemaDDL = func() string {
		var b strings.Builder
		b.WriteString("CREATE TABLE IF NOT EXISTS " + TableName + " (\n")
		b.WriteString("\tsiret BIGINT NOT NULL,\n\tsiren BIGINT NOT NULL,\n\tnic BIGINT NOT NULL")
		for _, f := range models.AttributeFields() {
			b.WriteString(",\n\t" + pq.QuoteIdentifier(f) + " TEXT NOT NULL DEFAULT ''")
		}
		b.WriteString("\n)")
		return b.String()
	}()

	selectBySiret = "SELECT " + quotedColumns + " FROM " + TableName + " WHERE siret = $1"

	insertRow = func() string {
		params := make([]string, len(columns))
		for i := range columns {
			params[i] = fmt.Sprintf("$%d", i+1)
		}
		return "INSERT INTO " + TableName + " (" + quotedColumns + ") VALUES (" + strings.Join(params, ", ") + ")"
	}()

	// Single-record writes target the first physical match, like the document
	// store's update_one/delete_one.
	firstMatch = "ctid = (SELECT ctid FROM " + TableName + " WHERE siret = $%d LIMIT 1)"

	updateAttributes = func() string {
		attrs := models.AttributeFields()
		sets := make([]string, len(attrs))
		for i, f := range attrs {
			sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(f), i+1)
		}
		return "UPDATE " + TableName + " SET " + strings.Join(sets, ", ") +
			" WHERE " + fmt.Sprintf(firstMatch, len(attrs)+1)
	}()

	deleteOne = "DELETE FROM " + TableName + " WHERE " + fmt.Sprintf(firstMatch, 1)
)

// indexDDL builds an idempotent CREATE INDEX statement for a record field.
func indexDDL(field string, unique bool) string {
	kind, suffix := "INDEX", "idx"
	if unique {
		kind, suffix = "UNIQUE INDEX", "key"
	}
	name := pq.QuoteIdentifier(fmt.Sprintf("%s_%s_%s", TableName, strings.ToLower(field), suffix))
	return fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)", kind, name, TableName, pq.QuoteIdentifier(field))
}

// rowValues orders a document's values by column. Missing attributes are empty.
func rowValues(doc models.Document) ([]any, error) {
	siret, siren, nic, err := identity(doc)
	if err != nil {
		return nil, err
	}
	row := make([]any, 0, len(columns))
	row = append(row, siret, siren, nic)
	for _, f := range models.AttributeFields() {
		row = append(row, models.RenderValue(doc[f]))
	}
	return row, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresStore persists establishments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the registry table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create %s table: %w", TableName, err)
	}
	return nil
}

func (s *PostgresStore) FindBySiret(ctx context.Context, siret int64) ([]models.Document, error) {
	rows, err := tx.ConnFrom(ctx, s.db).QueryContext(ctx, selectBySiret, siret)
	if err != nil {
		return nil, fmt.Errorf("find by siret: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var e models.Establishment
		dest := append([]any{&e.Siret, &e.Siren, &e.Nic}, e.Attributes.ScanTargets()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan establishment: %w", err)
		}
		docs = append(docs, e.ToDocument())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate establishments: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) Insert(ctx context.Context, e *models.Establishment) error {
	row, err := rowValues(e.ToDocument())
	if err != nil {
		return err
	}
	if _, err := tx.ConnFrom(ctx, s.db).ExecContext(ctx, insertRow, row...); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert establishment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReplaceAttributes(ctx context.Context, siret int64, attrs models.Attributes) error {
	fields := models.AttributeFields()
	values := attrs.ToMap()
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		args = append(args, values[f])
	}
	args = append(args, siret)

	res, err := tx.ConnFrom(ctx, s.db).ExecContext(ctx, updateAttributes, args...)
	if err != nil {
		return fmt.Errorf("update establishment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update establishment: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, siret int64) (int64, error) {
	res, err := tx.ConnFrom(ctx, s.db).ExecContext(ctx, deleteOne, siret)
	if err != nil {
		return 0, fmt.Errorf("delete establishment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete establishment: %w", err)
	}
	return n, nil
}

// InsertMany writes a batch in one transaction, joining the caller's when ctx
// carries one. Large loads should go through PostgresBulkWriter instead.
func (s *PostgresStore) InsertMany(ctx context.Context, docs []models.Document) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		stmt, err := tx.ConnFrom(ctx, s.db).PrepareContext(ctx, insertRow)
		if err != nil {
			return fmt.Errorf("prepare batch insert: %w", err)
		}
		defer stmt.Close()

		for _, doc := range docs {
			row, err := rowValues(doc)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("batch insert: %w", sentinel.ErrConflict)
				}
				return fmt.Errorf("batch insert: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) CreateIndex(ctx context.Context, field string, unique bool) error {
	if err := checkIndexField(field); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, indexDDL(field, unique)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("index on %s: %w", field, sentinel.ErrConflict)
		}
		return fmt.Errorf("index on %s: %w", field, err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
