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

type PreferenceRepository struct {
	col *mongo.Collection
}

func NewPreferenceRepository(d *mongo.Database) *PreferenceRepository {
	return &PreferenceRepository{col: d.Collection(db.CollectionPreferences)}
}

// Preferences returns the stored preferences of a user, or nil when the user
// has none.
func (r *PreferenceRepository) Preferences(ctx context.Context, userID string) (*models.Preferences, error) {
	var p models.Preferences
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Upsert replaces the preferences document of p.UserID.
func (r *PreferenceRepository) Upsert(ctx context.Context, p *models.Preferences) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.UserID}, p, options.Replace().SetUpsert(true))
	return err
}
