package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"news-pulse/db"
	"news-pulse/models"
)

// SnapshotRepository stores one feed snapshot document per cache key.
type SnapshotRepository struct {
	col *mongo.Collection
}

func NewSnapshotRepository(d *mongo.Database) *SnapshotRepository {
	return &SnapshotRepository{col: d.Collection(db.CollectionSnapshots)}
}

// Put replaces the whole document for key in a single write.
func (r *SnapshotRepository) Put(ctx context.Context, key string, snap models.FeedSnapshot) error {
	snap.Key = key
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": key}, snap, options.Replace().SetUpsert(true))
	return err
}

func (r *SnapshotRepository) Load(ctx context.Context, key string) (models.FeedSnapshot, bool, error) {
	var snap models.FeedSnapshot
	if err := r.col.FindOne(ctx, bson.M{"_id": key}).Decode(&snap); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.FeedSnapshot{}, false, nil
		}
		return models.FeedSnapshot{}, false, err
	}
	return snap, true, nil
}
