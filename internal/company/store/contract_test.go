package store

import (
	"context"

	"github.com/stretchr/testify/suite"

	"siret-api/internal/company/models"
	"siret-api/pkg/platform/sentinel"
)

// BackendSuite checks the adapter contract. Each adapter test embeds it and
// sets newBackend to hand out an empty store.
type BackendSuite struct {
	suite.Suite
	ctx        context.Context
	newBackend func() Backend
	store      Backend
}

func (s *BackendSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newBackend()
}

func newEstablishment(siret, siren, nic int64) *models.Establishment {
	e := &models.Establishment{Siret: siret, Siren: siren, Nic: nic}
	e.EtablissementSiege = "true"
	e.LibelleCommune = "PARIS"
	return e
}

func (s *BackendSuite) TestFindAfterInsert() {
	s.Run("returns every field and no surrogate key", func() {
		e := newEstablishment(12345600789, 123456, 789)
		s.Require().NoError(s.store.Insert(s.ctx, e))

		docs, err := s.store.FindBySiret(s.ctx, e.Siret)
		s.Require().NoError(err)
		s.Require().Len(docs, 1)

		r := models.Render(docs[0])
		_, hasID := r.Get(models.SurrogateKeyField)
		s.False(hasID)
		siret, _ := r.Get(models.FieldSiret)
		s.Equal("12345600789", siret)
		commune, _ := r.Get("libelleCommuneEtablissement")
		s.Equal("PARIS", commune)
		enseigne, ok := r.Get("enseigne1Etablissement")
		s.True(ok)
		s.Equal("", enseigne)
	})

	s.Run("returns nothing for an unknown siret", func() {
		docs, err := s.store.FindBySiret(s.ctx, 98765432100001)
		s.Require().NoError(err)
		s.Empty(docs)
	})
}

func (s *BackendSuite) TestUniqueIndexRejectsDuplicates() {
	s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, true))
	s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, true), "index creation is idempotent")

	e := newEstablishment(55210055400013, 552100554, 13)
	s.Require().NoError(s.store.Insert(s.ctx, e))

	err := s.store.Insert(s.ctx, e)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	docs, err := s.store.FindBySiret(s.ctx, e.Siret)
	s.Require().NoError(err)
	s.Len(docs, 1)
}

func (s *BackendSuite) TestPlainIndexUpgradesToUnique() {
	s.Run("plain then unique", func() {
		s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, false))
		s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, true))
		s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, false), "a unique index satisfies a plain request")

		e := newEstablishment(40000000100001, 400000001, 1)
		s.Require().NoError(s.store.Insert(s.ctx, e))
		s.Require().ErrorIs(s.store.Insert(s.ctx, e), sentinel.ErrConflict)
	})
}

func (s *BackendSuite) TestUniqueIndexOverDuplicatesConflicts() {
	dup := newEstablishment(40000000200002, 400000002, 2).ToDocument()
	s.Require().NoError(s.store.InsertMany(s.ctx, []models.Document{dup, dup}))
	s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, false))

	err := s.store.CreateIndex(s.ctx, models.FieldSiret, true)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, false), "plain index still in place")
	docs, err := s.store.FindBySiret(s.ctx, 40000000200002)
	s.Require().NoError(err)
	s.Len(docs, 2)
}

func (s *BackendSuite) TestReplaceAttributes() {
	s.Run("replaces the whole attribute set and keeps identity", func() {
		e := newEstablishment(73282932000074, 732829320, 74)
		s.Require().NoError(s.store.Insert(s.ctx, e))

		var attrs models.Attributes
		attrs.EtablissementSiege = "Paris"
		s.Require().NoError(s.store.ReplaceAttributes(s.ctx, e.Siret, attrs))

		docs, err := s.store.FindBySiret(s.ctx, e.Siret)
		s.Require().NoError(err)
		s.Require().Len(docs, 1)
		r := models.Render(docs[0])
		siege, _ := r.Get("etablissementSiege")
		s.Equal("Paris", siege)
		commune, _ := r.Get("libelleCommuneEtablissement")
		s.Equal("", commune, "unset attributes are cleared")
		siren, _ := r.Get(models.FieldSiren)
		s.Equal("732829320", siren)
	})

	s.Run("reports ErrNotFound when nothing matches", func() {
		err := s.store.ReplaceAttributes(s.ctx, 11111111111111, models.Attributes{})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *BackendSuite) TestDelete() {
	e := newEstablishment(12345678900000, 123456789, 0)
	s.Require().NoError(s.store.Insert(s.ctx, e))

	n, err := s.store.Delete(s.ctx, e.Siret)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.store.Delete(s.ctx, e.Siret)
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	docs, err := s.store.FindBySiret(s.ctx, e.Siret)
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *BackendSuite) TestInsertManyThenIndex() {
	docs := []models.Document{
		{models.FieldSiret: int64(10000000100001), models.FieldSiren: int64(100000001), models.FieldNic: int64(1), "codePostalEtablissement": "75001"},
		{models.FieldSiret: int64(10000000200002), models.FieldSiren: int64(100000002), models.FieldNic: int64(2)},
	}
	s.Require().NoError(s.store.InsertMany(s.ctx, docs))
	s.Require().NoError(s.store.CreateIndex(s.ctx, models.FieldSiret, true))

	found, err := s.store.FindBySiret(s.ctx, 10000000100001)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	cp, _ := models.Render(found[0]).Get("codePostalEtablissement")
	s.Equal("75001", cp)

	s.Error(s.store.CreateIndex(s.ctx, "notAField", false))
}
