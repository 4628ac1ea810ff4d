package model

import "time"

// BookingLock is an advisory lock held while a booking for one actor is being
// checked and written. The _id is the lock key, so a second insert for the
// same actor fails with a duplicate key error. Owner is a token unique to the
// holding request; only the owner may delete the lock.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
