package db

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"news-pulse/config"
)

const (
	CollectionSnapshots   = "feed_snapshots"
	CollectionClusters    = "story_clusters"
	CollectionPreferences = "user_preferences"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	db         *mongo.Database
)

// Init connects the global Mongo client and ensures indexes.
func Init(ctx context.Context) error {
	var initErr error
	clientOnce.Do(func() {
		cfg := config.GetConfig().Mongo

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			initErr = err
			return
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			initErr = err
			return
		}
		client = cl
		db = client.Database(cfg.Database)

		if err := ensureIndexes(ctx, db); err != nil {
			initErr = err
			return
		}
		config.Logger.Info("MongoDB connected and indexes ensured")
	})
	return initErr
}

func Client() *mongo.Client     { return client }
func Database() *mongo.Database { return db }

// Ping checks the connection; it reports nil when Mongo is not in use.
func Ping(ctx context.Context) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}

func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// story_clusters: newest materialization per language first, retention TTL
	{
		if _, err := d.Collection(CollectionClusters).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "language", Value: 1}, {Key: "materialized_at", Value: -1}, {Key: "base_score", Value: -1}},
			Options: options.Index().SetName("idx_language_materialized_at_score"),
		}); err != nil {
			return err
		}
		if _, err := d.Collection(CollectionClusters).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		}); err != nil {
			return err
		}
	}

	// feed_snapshots: keyed by _id, created_at for inspection
	{
		if _, err := d.Collection(CollectionSnapshots).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at_desc"),
		}); err != nil {
			return err
		}
	}
	return nil
}
