package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

// Booking is one appointment between a member and a trainer for a service.
// EndTime is derived from StartTime and DurationMinutes and stored so the
// overlap queries can run against an index.
type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty"`
	MemberID        string        `json:"member_id" bson:"member_id"`
	TrainerID       string        `json:"trainer_id" bson:"trainer_id"`
	ServiceID       string        `json:"service_id" bson:"service_id"`
	StartTime       time.Time     `json:"start_time" bson:"start_time"`
	EndTime         time.Time     `json:"end_time" bson:"end_time"`
	DurationMinutes int           `json:"duration_minutes" bson:"duration_minutes"`
	PriceCents      int64         `json:"price_cents" bson:"price_cents"`
	Notes           string        `json:"notes,omitempty" bson:"notes"`
	Status          BookingStatus `json:"status" bson:"status"`
	IsActive        bool          `json:"is_active" bson:"is_active"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the input to a new booking. Start is a single absolute
// timestamp; splitting it into date and time-of-day is the caller's concern.
type BookingRequest struct {
	MemberID        string    `json:"member_id" validate:"required,mongodb"`
	TrainerID       string    `json:"trainer_id" validate:"required,mongodb"`
	ServiceID       string    `json:"service_id" validate:"required,mongodb"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0,max=1440"`
	PriceCents      int64     `json:"price_cents" validate:"gte=0"`
	Notes           string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}
