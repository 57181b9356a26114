package store

import (
	"context"
	"fmt"
	"sync"

	"siret-api/internal/company/models"
	"siret-api/pkg/platform/sentinel"
)

// InMemory keeps documents in insertion order. It mirrors the document store
// semantics: lookups may return several matches until a unique index on siret
// exists, and single-record writes touch the first match only.
type InMemory struct {
	mu      sync.RWMutex
	docs    []models.Document
	indexes map[string]bool // field -> unique
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{indexes: make(map[string]bool)}
}

func (s *InMemory) FindBySiret(_ context.Context, siret int64) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, doc := range s.docs {
		if v, ok := toInt64(doc[models.FieldSiret]); ok && v == siret {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Insert(_ context.Context, e *models.Establishment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uniqueSiret() && s.indexOf(e.Siret) >= 0 {
		return sentinel.ErrConflict
	}
	s.docs = append(s.docs, e.ToDocument())
	return nil
}

func (s *InMemory) ReplaceAttributes(_ context.Context, siret int64, attrs models.Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(siret)
	if i < 0 {
		return sentinel.ErrNotFound
	}
	for k, v := range attrs.ToMap() {
		s.docs[i][k] = v
	}
	return nil
}

func (s *InMemory) Delete(_ context.Context, siret int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(siret)
	if i < 0 {
		return 0, nil
	}
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	return 1, nil
}

func (s *InMemory) InsertMany(_ context.Context, docs []models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]models.Document, 0, len(docs))
	seen := make(map[int64]struct{}, len(docs))
	for _, doc := range docs {
		siret, _, _, err := identity(doc)
		if err != nil {
			return err
		}
		if s.uniqueSiret() {
			if _, dup := seen[siret]; dup || s.indexOf(siret) >= 0 {
				return fmt.Errorf("siret %d: %w", siret, sentinel.ErrConflict)
			}
			seen[siret] = struct{}{}
		}
		batch = append(batch, doc.Clone())
	}
	s.docs = append(s.docs, batch...)
	return nil
}

func (s *InMemory) CreateIndex(_ context.Context, field string, unique bool) error {
	if err := checkIndexField(field); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if unique {
		seen := make(map[string]struct{}, len(s.docs))
		for _, doc := range s.docs {
			key := models.RenderValue(doc[field])
			if _, dup := seen[key]; dup {
				return fmt.Errorf("unique index on %s: duplicate value %s: %w", field, key, sentinel.ErrConflict)
			}
			seen[key] = struct{}{}
		}
	}
	s.indexes[field] = s.indexes[field] || unique
	return nil
}

// Len returns the number of stored documents.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func (s *InMemory) uniqueSiret() bool {
	return s.indexes[models.FieldSiret]
}

// indexOf returns the position of the first document with siret, or -1.
// Callers hold the lock.
func (s *InMemory) indexOf(siret int64) int {
	for i, doc := range s.docs {
		if v, ok := toInt64(doc[models.FieldSiret]); ok && v == siret {
			return i
		}
	}
	return -1
}
