//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"siret-api/internal/company/models"
	"siret-api/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	BackendSuite
	redis   *containers.RedisContainer
	backing *InMemory
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s := new(CachedStoreSuite)
	s.newBackend = func() Backend {
		s.Require().NoError(s.redis.FlushAll(context.Background()))
		s.backing = NewInMemory()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		return NewCached(s.backing, s.redis.Client, WithCacheLogger(logger))
	}
	suite.Run(t, s)
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CachedStoreSuite) TestLookupsAreCachedAndInvalidated() {
	e := newEstablishment(12345600789, 123456, 789)
	s.Require().NoError(s.store.Insert(s.ctx, e))

	_, err := s.store.FindBySiret(s.ctx, e.Siret)
	s.Require().NoError(err)
	exists, err := s.redis.Client.Exists(s.ctx, cacheKey(e.Siret)).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)

	// A cached hit is served even if the backing store changes underneath.
	s.Require().NoError(s.backing.ReplaceAttributes(s.ctx, e.Siret, models.Attributes{EtablissementSiege: "stale"}))
	docs, err := s.store.FindBySiret(s.ctx, e.Siret)
	s.Require().NoError(err)
	siege, _ := models.Render(docs[0]).Get("etablissementSiege")
	s.Equal("true", siege)

	// Writes through the cache drop the entry.
	s.Require().NoError(s.store.ReplaceAttributes(s.ctx, e.Siret, models.Attributes{EtablissementSiege: "fresh"}))
	docs, err = s.store.FindBySiret(s.ctx, e.Siret)
	s.Require().NoError(err)
	siege, _ = models.Render(docs[0]).Get("etablissementSiege")
	s.Equal("fresh", siege)

	siret, _ := models.Render(docs[0]).Get(models.FieldSiret)
	s.Equal("12345600789", siret, "cached identity keeps its exact digits")
}

func (s *CachedStoreSuite) TestEmptyLookupsAreNotCached() {
	_, err := s.store.FindBySiret(s.ctx, 98765432100001)
	s.Require().NoError(err)
	exists, err := s.redis.Client.Exists(s.ctx, cacheKey(98765432100001)).Result()
	s.Require().NoError(err)
	s.Equal(int64(0), exists)
}

// pausingStore holds FindBySiret after the read until resume is closed.
type pausingStore struct {
	*InMemory
	read   chan struct{}
	resume chan struct{}
}

func (p *pausingStore) FindBySiret(ctx context.Context, siret int64) ([]models.Document, error) {
	docs, err := p.InMemory.FindBySiret(ctx, siret)
	close(p.read)
	<-p.resume
	return docs, err
}

func (s *CachedStoreSuite) TestWriteDuringLookupIsNotOverwrittenByStaleFill() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writes := []struct {
		name  string
		write func(c *CachedStore, siret int64) error
	}{
		{
			name: "delete",
			write: func(c *CachedStore, siret int64) error {
				n, err := c.Delete(s.ctx, siret)
				s.Equal(int64(1), n)
				return err
			},
		},
		{
			name: "replace attributes",
			write: func(c *CachedStore, siret int64) error {
				return c.ReplaceAttributes(s.ctx, siret, models.Attributes{EtablissementSiege: "fresh"})
			},
		},
	}

	for _, tc := range writes {
		s.Run(tc.name, func() {
			s.Require().NoError(s.redis.FlushAll(s.ctx))
			backing := &pausingStore{InMemory: NewInMemory(), read: make(chan struct{}), resume: make(chan struct{})}
			e := newEstablishment(12345600789, 123456, 789)
			s.Require().NoError(backing.Insert(s.ctx, e))
			cached := NewCached(backing, s.redis.Client, WithCacheLogger(logger))

			done := make(chan error, 1)
			go func() {
				_, err := cached.FindBySiret(s.ctx, e.Siret)
				done <- err
			}()

			<-backing.read
			s.Require().NoError(tc.write(cached, e.Siret))
			close(backing.resume)
			s.Require().NoError(<-done)

			exists, err := s.redis.Client.Exists(s.ctx, cacheKey(e.Siret)).Result()
			s.Require().NoError(err)
			s.Equal(int64(0), exists, "the lookup read before the write must not fill the cache")

			want, err := backing.InMemory.FindBySiret(s.ctx, e.Siret)
			s.Require().NoError(err)
			backing.read = make(chan struct{})
			backing.resume = make(chan struct{})
			close(backing.resume)
			got, err := cached.FindBySiret(s.ctx, e.Siret)
			s.Require().NoError(err)
			s.Require().Equal(len(want), len(got))
			if len(got) > 0 {
				siege, _ := models.Render(got[0]).Get("etablissementSiege")
				s.Equal("fresh", siege)
			}
		})
	}
}
