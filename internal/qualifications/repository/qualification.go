package repository

import (
	"context"
	"fmt"

	"gymcore/pkg/config"
	"gymcore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Qualifications"
)

type QualificationRepository interface {
	// LoadQualifiedTrainerIDs returns the trainers holding an active
	// qualification for serviceID, in the order the qualifications were
	// granted. A trainer appears at most once.
	LoadQualifiedTrainerIDs(ctx context.Context, serviceID string) ([]string, error)
}

type mongoQualificationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoQualificationRepository(cfg *config.Config) QualificationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoQualificationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoQualificationRepository) LoadQualifiedTrainerIDs(ctx context.Context, serviceID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"service_id": serviceID,
		"is_active":  true,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"trainer_id": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find qualifications: %w", err)
	}
	defer cursor.Close(ctx)

	var qualifications []model.Qualification
	if err = cursor.All(ctx, &qualifications); err != nil {
		return nil, fmt.Errorf("failed to decode qualifications: %w", err)
	}

	seen := make(map[string]struct{}, len(qualifications))
	ids := make([]string, 0, len(qualifications))
	for _, q := range qualifications {
		if _, dup := seen[q.TrainerID]; dup {
			continue
		}
		seen[q.TrainerID] = struct{}{}
		ids = append(ids, q.TrainerID)
	}
	return ids, nil
}
