package service

import (
	"context"
	"time"

	"gymcore/pkg/clock"
	"gymcore/pkg/config"
	"gymcore/pkg/kafka"
	"gymcore/pkg/middleware"
	"gymcore/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingDeleted   = "booking.deleted"

	eventSchemaVersion = "1"
	eventSource        = "gymcore-bookings"
)

// EventPublisher announces lifecycle changes after they are persisted.
// Publishing is best effort: failures are logged, never returned.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking)
}

type BookingEvent struct {
	BookingID  string              `json:"booking_id"`
	MemberID   string              `json:"member_id"`
	TrainerID  string              `json:"trainer_id"`
	ServiceID  string              `json:"service_id"`
	StartTime  time.Time           `json:"start_time"`
	EndTime    time.Time           `json:"end_time"`
	Status     model.BookingStatus `json:"status"`
	IsActive   bool                `json:"is_active"`
	OccurredAt time.Time           `json:"occurred_at"`
}

type kafkaEventPublisher struct {
	producer *kafka.Producer
	clock    clock.Clock
	cfg      *config.Config
}

func NewKafkaEventPublisher(producer *kafka.Producer, clk clock.Clock, cfg *config.Config) EventPublisher {
	return &kafkaEventPublisher{
		producer: producer,
		clock:    clk,
		cfg:      cfg,
	}
}

func (p *kafkaEventPublisher) Publish(ctx context.Context, eventType string, b *model.Booking) {
	now := p.clock.Now()
	msg, err := kafka.NewMessage(eventType).
		WithKey(b.TrainerID).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(eventSchemaVersion).
		WithSource(eventSource).
		WithTimestamp(now).
		WithValue(BookingEvent{
			BookingID:  b.ID,
			MemberID:   b.MemberID,
			TrainerID:  b.TrainerID,
			ServiceID:  b.ServiceID,
			StartTime:  b.StartTime,
			EndTime:    b.EndTime,
			Status:     b.Status,
			IsActive:   b.IsActive,
			OccurredAt: now,
		}).
		Build()
	if err != nil {
		p.cfg.Log.Error("Failed to build booking event", "event_type", eventType, "booking_id", b.ID, "error", err)
		return
	}

	// The write must outlive a request that has already been answered.
	ctx = context.WithoutCancel(ctx)
	if p.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.WriteTimeout)
		defer cancel()
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.cfg.Log.Error("Failed to publish booking event",
			"event_type", eventType,
			"event_id", msg.EventID(),
			"booking_id", b.ID,
			"topic", p.producer.Topic(),
			"error", err,
		)
		return
	}

	p.cfg.Log.Debug("Booking event published", "event_type", eventType, "booking_id", b.ID, "event_id", msg.EventID())
}

type noopEventPublisher struct{}

// NewNoopEventPublisher is used when no Kafka brokers are configured.
func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) Publish(context.Context, string, *model.Booking) {}
