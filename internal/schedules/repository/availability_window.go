package repository

import (
	"context"
	"fmt"
	"time"

	"gymcore/pkg/config"
	"gymcore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availability_windows"
)

// AvailabilityWindowRepository reads trainer availability windows. Windows
// are maintained by the scheduling back office; this side never writes them.
type AvailabilityWindowRepository interface {
	LoadActiveWindows(ctx context.Context, trainerID string, day time.Weekday) ([]*model.AvailabilityWindow, error)
}

type mongoAvailabilityWindowRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAvailabilityWindowRepository(cfg *config.Config) AvailabilityWindowRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityWindowRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAvailabilityWindowRepository) LoadActiveWindows(ctx context.Context, trainerID string, day time.Weekday) ([]*model.AvailabilityWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"trainer_id":  trainerID,
		"day_of_week": int(day),
		"is_active":   true,
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability windows: %w", err)
	}
	defer cursor.Close(ctx)

	windows := []*model.AvailabilityWindow{}
	if err = cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("failed to decode availability windows: %w", err)
	}

	return windows, nil
}
