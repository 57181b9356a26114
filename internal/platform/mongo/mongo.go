// Package mongo connects to the registry's MongoDB deployment.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"siret-api/internal/platform/config"
)

const connectTimeout = 10 * time.Second

// Connect dials the deployment named by cfg.MongoURL and returns the client
// together with the configured collection.
func Connect(ctx context.Context, cfg config.StoreConfig) (*mongo.Client, *mongo.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	return client, coll, nil
}
