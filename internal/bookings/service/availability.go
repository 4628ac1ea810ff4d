package service

import (
	"context"
	"time"

	"gymcore/internal/bookings/repository"
	schedulesrepo "gymcore/internal/schedules/repository"
	"gymcore/pkg/config"
	apperrors "gymcore/pkg/errors"
	"gymcore/pkg/interval"
	"gymcore/pkg/model"
)

// AvailabilityChecker decides whether a trainer or a member is free for a
// proposed slot. Both checks only read; a rejection is returned as an
// *apperrors.AppError with a business code, never as (false, nil).
type AvailabilityChecker interface {
	IsTrainerAvailable(ctx context.Context, trainerID string, start time.Time, durationMinutes int) (bool, error)
	IsMemberAvailable(ctx context.Context, memberID string, start time.Time, durationMinutes int) (bool, error)
}

type availabilityChecker struct {
	bookings repository.BookingRepository
	windows  schedulesrepo.AvailabilityWindowRepository
	cfg      *config.Config
}

func NewAvailabilityChecker(
	bookings repository.BookingRepository,
	windows schedulesrepo.AvailabilityWindowRepository,
	cfg *config.Config,
) AvailabilityChecker {
	return &availabilityChecker{
		bookings: bookings,
		windows:  windows,
		cfg:      cfg,
	}
}

func (c *availabilityChecker) IsTrainerAvailable(ctx context.Context, trainerID string, start time.Time, durationMinutes int) (bool, error) {
	end, err := proposedEnd(start, durationMinutes)
	if err != nil {
		return false, err
	}

	windows, err := c.windows.LoadActiveWindows(ctx, trainerID, start.Weekday())
	if err != nil {
		c.cfg.Log.Error("Failed to load availability windows",
			"trainer_id", trainerID,
			"day_of_week", int(start.Weekday()),
			"error", err,
		)
		return false, apperrors.Internal("Failed to check trainer availability", err)
	}
	if !c.withinSchedule(trainerID, windows, start, end) {
		c.cfg.Log.Debug("Slot outside trainer schedule",
			"trainer_id", trainerID,
			"start_time", start,
			"windows", len(windows),
		)
		return false, apperrors.ScheduleMismatch(trainerID, start)
	}

	bookings, err := c.bookings.LoadActiveForTrainer(ctx, trainerID)
	if err != nil {
		c.cfg.Log.Error("Failed to load trainer bookings", "trainer_id", trainerID, "error", err)
		return false, apperrors.Internal("Failed to check trainer availability", err)
	}
	if clash := firstOverlap(bookings, start, end); clash != nil {
		c.cfg.Log.Debug("Trainer slot already taken", "trainer_id", trainerID, "booking_id", clash.ID)
		appErr := apperrors.TrainerConflict(trainerID, apperrors.ReasonOverlappingBooking)
		appErr.Details["booking_id"] = clash.ID
		return false, appErr
	}

	return true, nil
}

// IsMemberAvailable only checks the member's own bookings. Members have no
// weekly schedule.
func (c *availabilityChecker) IsMemberAvailable(ctx context.Context, memberID string, start time.Time, durationMinutes int) (bool, error) {
	end, err := proposedEnd(start, durationMinutes)
	if err != nil {
		return false, err
	}

	bookings, err := c.bookings.LoadActiveForMember(ctx, memberID)
	if err != nil {
		c.cfg.Log.Error("Failed to load member bookings", "member_id", memberID, "error", err)
		return false, apperrors.Internal("Failed to check member availability", err)
	}
	if clash := firstOverlap(bookings, start, end); clash != nil {
		c.cfg.Log.Debug("Member already booked", "member_id", memberID, "booking_id", clash.ID)
		appErr := apperrors.MemberConflict(memberID, apperrors.ReasonOverlappingBooking)
		appErr.Details["booking_id"] = clash.ID
		return false, appErr
	}

	return true, nil
}

// withinSchedule reports whether [start, end) fits inside at least one of
// the windows. Windows that cannot be parsed are skipped.
func (c *availabilityChecker) withinSchedule(trainerID string, windows []*model.AvailabilityWindow, start, end time.Time) bool {
	for _, w := range windows {
		if !w.IsActive || w.DayOfWeek != int(start.Weekday()) {
			continue
		}
		wStart, wEnd, err := w.On(start)
		if err != nil {
			c.cfg.Log.Warn("Skipping malformed availability window",
				"trainer_id", trainerID,
				"window_id", w.ID,
				"error", err,
			)
			continue
		}
		if interval.Contains(wStart, wEnd, start, end) {
			return true
		}
	}
	return false
}

// firstOverlap returns the first booking that still occupies its slot and
// overlaps [start, end), or nil.
func firstOverlap(bookings []*model.Booking, start, end time.Time) *model.Booking {
	for _, b := range bookings {
		if !b.IsActive || b.Status.IsTerminal() {
			continue
		}
		if interval.Overlaps(b.StartTime, b.EndTime, start, end) {
			return b
		}
	}
	return nil
}

// proposedEnd validates the requested slot and returns its end.
func proposedEnd(start time.Time, durationMinutes int) (time.Time, error) {
	if durationMinutes <= 0 {
		return time.Time{}, apperrors.Validation("Duration must be greater than zero",
			map[string]any{"duration_minutes": durationMinutes})
	}
	if start.IsZero() {
		return time.Time{}, apperrors.Validation("Start time is required", nil)
	}
	end := interval.End(start, durationMinutes)
	if !interval.SameDay(start, end) {
		return time.Time{}, apperrors.Validation("Booking must start and end on the same day",
			map[string]any{
				"start_time":       start.Format(time.RFC3339),
				"duration_minutes": durationMinutes,
			})
	}
	return end, nil
}
