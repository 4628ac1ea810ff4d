package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "gymcore/internal/bookings/errors"
	"gymcore/pkg/config"
	"gymcore/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository provides advisory locks keyed by an arbitrary string.
// owner identifies the holder; a lock is only ever deleted by its owner, so a
// holder whose lock expired and was taken over cannot free the new holder's
// lock.
type BookingLockRepository interface {
	// Acquire returns ErrLockHeld when an unexpired lock exists for key.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) error
	// Release returns ErrLockNotOwned when the lock is no longer owner's.
	Release(ctx context.Context, key, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	err := r.insert(ctx, key, owner, ttl)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	// The TTL monitor only sweeps about once a minute, so an expired lock
	// can still be present. Take it over if so.
	res, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        key,
		"expires_at": bson.M{"$lte": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to clear expired lock %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return bookingserrors.ErrLockHeld
	}

	if err := r.insert(ctx, key, owner, ttl); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return nil
}

func (r *mongoBookingLockRepository) insert(ctx context.Context, key, owner string, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, &model.BookingLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	return err
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, key, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return bookingserrors.ErrLockNotOwned
	}
	return nil
}
