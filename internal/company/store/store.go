// Package store holds the registry's persistence adapters. Every adapter keys
// records by siret and never exposes a store-internal surrogate key.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"siret-api/internal/company/models"
)

// Backend is the contract shared by all adapters, including the cache decorator.
type Backend interface {
	FindBySiret(ctx context.Context, siret int64) ([]models.Document, error)
	Insert(ctx context.Context, e *models.Establishment) error
	ReplaceAttributes(ctx context.Context, siret int64, attrs models.Attributes) error
	Delete(ctx context.Context, siret int64) (int64, error)
	InsertMany(ctx context.Context, docs []models.Document) error
	CreateIndex(ctx context.Context, field string, unique bool) error
}

// Compile-time interface compliance checks
var (
	_ Backend = (*InMemory)(nil)
	_ Backend = (*PostgresStore)(nil)
	_ Backend = (*MongoStore)(nil)
	_ Backend = (*CachedStore)(nil)
)

// toInt64 reads an identity value written by any adapter or loader.
func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// identity extracts siret, siren and nic from a document.
func identity(doc models.Document) (siret, siren, nic int64, err error) {
	var ok bool
	if siret, ok = toInt64(doc[models.FieldSiret]); !ok {
		return 0, 0, 0, fmt.Errorf("document has no numeric %s: %v", models.FieldSiret, doc[models.FieldSiret])
	}
	if siren, ok = toInt64(doc[models.FieldSiren]); !ok {
		return 0, 0, 0, fmt.Errorf("document %d has no numeric %s", siret, models.FieldSiren)
	}
	if nic, ok = toInt64(doc[models.FieldNic]); !ok {
		return 0, 0, 0, fmt.Errorf("document %d has no numeric %s", siret, models.FieldNic)
	}
	return siret, siren, nic, nil
}

func checkIndexField(field string) error {
	if !models.IsField(field) {
		return fmt.Errorf("cannot index unknown field %q", field)
	}
	return nil
}
