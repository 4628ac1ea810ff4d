package mongo

import (
	"context"
	"fmt"

	bookingsrepo "gymcore/internal/bookings/repository"
	"gymcore/internal/migrations/mongo/validators"
	qualificationsrepo "gymcore/internal/qualifications/repository"
	schedulesrepo "gymcore/internal/schedules/repository"
	"gymcore/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	// Both overlap loaders filter on the actor, status and is_active and
	// sort by start_time.
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "trainer_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "is_active", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "member_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "is_active", Value: 1},
			{Key: "start_time", Value: 1},
		}},
	}

	AvailabilityWindowsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "trainer_id", Value: 1},
			{Key: "day_of_week", Value: 1},
			{Key: "is_active", Value: 1},
		}},
	}

	QualificationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "service_id", Value: 1},
			{Key: "is_active", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "trainer_id", Value: 1}, {Key: "service_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	// Abandoned locks are reaped by the TTL monitor; Acquire also takes
	// over an expired lock directly since the monitor only runs once a minute.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: bookingsrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: bookingsrepo.LockCollectionName, Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
		{Name: schedulesrepo.CollectionName, Indexes: AvailabilityWindowsIndexes, Validator: validators.AvailabilityWindowValidator},
		{Name: qualificationsrepo.CollectionName, Indexes: QualificationsIndexes, Validator: validators.QualificationValidator},
	}
}

// RunMigration creates or updates every collection with its validator and
// indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
