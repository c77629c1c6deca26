package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"news-pulse/db"
	"news-pulse/models"
)

// clusterDocument is a materialized cluster with its bookkeeping fields.
type clusterDocument struct {
	models.StoryCluster `bson:",inline"`
	Language            string    `bson:"language"`
	MaterializedAt      time.Time `bson:"materialized_at"`
	ExpiresAt           time.Time `bson:"expires_at"`
}

type ClusterRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

func NewClusterRepository(d *mongo.Database, retention time.Duration) *ClusterRepository {
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	return &ClusterRepository{col: d.Collection(db.CollectionClusters), retention: retention}
}

// SaveClusters upserts one run's clusters by id, stamping language,
// materialized_at and expires_at. Personalized scores are never persisted.
func (r *ClusterRepository) SaveClusters(ctx context.Context, language string, clusters []models.StoryCluster, materializedAt time.Time) error {
	if len(clusters) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(clusters))
	for _, c := range clusters {
		c.PersonalizedScore = nil
		doc := clusterDocument{
			StoryCluster:   c,
			Language:       language,
			MaterializedAt: materializedAt.UTC(),
			ExpiresAt:      materializedAt.UTC().Add(r.retention),
		}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": c.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err := r.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}

// ActiveClusters returns the latest run materialized for language at or
// after since, best stored score first. Clusters left over from earlier runs
// are not returned.
func (r *ClusterRepository) ActiveClusters(ctx context.Context, language string, since time.Time, limit int) ([]models.StoryCluster, error) {
	var latest clusterDocument
	err := r.col.FindOne(ctx,
		bson.M{"language": language, "materialized_at": bson.M{"$gte": since.UTC()}},
		options.FindOne().SetSort(bson.D{{Key: "materialized_at", Value: -1}}).SetProjection(bson.M{"materialized_at": 1}),
	).Decode(&latest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "base_score", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"language": language, "materialized_at": latest.MaterializedAt}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []clusterDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.StoryCluster, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.StoryCluster)
	}
	return out, nil
}

// DeleteExpired removes clusters past their retention. The TTL index does the
// same lazily; this makes cleanup deterministic for the worker.
func (r *ClusterRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
