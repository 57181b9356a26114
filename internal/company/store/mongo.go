package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"siret-api/internal/company/models"
	"siret-api/pkg/platform/sentinel"
)

// MongoStore keeps establishments as documents in a MongoDB collection, the
// layout the bulk dataset was historically loaded into.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo wraps a collection handle.
func NewMongo(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

var withoutSurrogateKey = options.Find().SetProjection(bson.M{models.SurrogateKeyField: 0})

func (s *MongoStore) FindBySiret(ctx context.Context, siret int64) ([]models.Document, error) {
	cur, err := s.coll.Find(ctx, bson.M{models.FieldSiret: siret}, withoutSurrogateKey)
	if err != nil {
		return nil, fmt.Errorf("find by siret: %w", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode establishments: %w", err)
	}
	docs := make([]models.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, models.Document(m).Clone())
	}
	return docs, nil
}

func (s *MongoStore) Insert(ctx context.Context, e *models.Establishment) error {
	if _, err := s.coll.InsertOne(ctx, orderedDocument(e.ToDocument())); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert establishment: %w", err)
	}
	return nil
}

func (s *MongoStore) ReplaceAttributes(ctx context.Context, siret int64, attrs models.Attributes) error {
	values := attrs.ToMap()
	set := make(bson.D, 0, len(values))
	for _, f := range models.AttributeFields() {
		set = append(set, bson.E{Key: f, Value: values[f]})
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{models.FieldSiret: siret}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update establishment: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, siret int64) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{models.FieldSiret: siret})
	if err != nil {
		return 0, fmt.Errorf("delete establishment: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) InsertMany(ctx context.Context, docs []models.Document) error {
	batch := make([]any, 0, len(docs))
	for _, doc := range docs {
		if _, _, _, err := identity(doc); err != nil {
			return err
		}
		batch = append(batch, orderedDocument(doc))
	}
	if _, err := s.coll.InsertMany(ctx, batch); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert batch: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// CreateIndex is idempotent on the field whatever the uniqueness of an index
// already there. A plain index (as a bulk load leaves it) is upgraded in place
// when unique is requested; if duplicates prevent that, the plain index is
// restored and ErrConflict is returned. An existing unique index satisfies a
// plain request.
func (s *MongoStore) CreateIndex(ctx context.Context, field string, unique bool) error {
	if err := checkIndexField(field); err != nil {
		return err
	}
	existing, found, err := s.findIndex(ctx, field)
	if err != nil {
		return fmt.Errorf("index on %s: %w", field, err)
	}
	if found && (existing.Unique || !unique) {
		return nil
	}
	if found {
		if err := s.coll.Indexes().DropOne(ctx, existing.Name); err != nil {
			return fmt.Errorf("index on %s: drop %s: %w", field, existing.Name, err)
		}
	}

	err = s.createIndex(ctx, field, unique)
	if err != nil && found && mongo.IsDuplicateKeyError(err) {
		if restoreErr := s.createIndex(ctx, field, false); restoreErr != nil {
			return fmt.Errorf("index on %s: restore plain index: %w", field, restoreErr)
		}
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("index on %s: %w", field, sentinel.ErrConflict)
		}
		return fmt.Errorf("index on %s: %w", field, err)
	}
	return nil
}

type mongoIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
}

// findIndex returns the single-field index on field, if any.
func (s *MongoStore) findIndex(ctx context.Context, field string) (mongoIndex, bool, error) {
	cur, err := s.coll.Indexes().List(ctx)
	if err != nil {
		return mongoIndex{}, false, fmt.Errorf("list indexes: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var idx mongoIndex
		if err := cur.Decode(&idx); err != nil {
			return mongoIndex{}, false, fmt.Errorf("decode index: %w", err)
		}
		if len(idx.Key) == 1 && idx.Key[0].Key == field {
			return idx, true, nil
		}
	}
	return mongoIndex{}, false, cur.Err()
}

func (s *MongoStore) createIndex(ctx context.Context, field string, unique bool) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(unique),
	}
	_, err := s.coll.Indexes().CreateOne(ctx, model)
	return err
}

// orderedDocument lays a document out in canonical field order, extra columns last.
func orderedDocument(doc models.Document) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, f := range models.Fields() {
		if v, ok := doc[f]; ok {
			out = append(out, bson.E{Key: f, Value: v})
		}
	}
	for k, v := range doc {
		if k == models.SurrogateKeyField || models.IsField(k) {
			continue
		}
		out = append(out, bson.E{Key: k, Value: v})
	}
	return out
}
