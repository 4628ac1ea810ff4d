package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "gymcore/internal/bookings/errors"
	"gymcore/internal/bookings/repository"
	"gymcore/internal/bookings/validator"
	"gymcore/pkg/clock"
	"gymcore/pkg/config"
	apperrors "gymcore/pkg/errors"
	"gymcore/pkg/model"
	"gymcore/pkg/sanitizer"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	lockRetryInitialInterval = 20 * time.Millisecond
	lockRetryMaxInterval     = 250 * time.Millisecond
)

// errUnchanged lets a transition report that the booking is already in the
// requested state, so nothing is written.
var errUnchanged = errors.New("booking unchanged")

// BookingService drives a booking through its lifecycle:
//
//	pending -> confirmed -> completed
//	pending | confirmed -> cancelled
//
// Completed and cancelled are terminal. Every error returned is an
// *apperrors.AppError.
type BookingService interface {
	Book(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Confirm(ctx context.Context, id string) (*model.Booking, error)
	Cancel(ctx context.Context, id string, reason string) (bool, error)
	Complete(ctx context.Context, id string) (*model.Booking, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	ListForTrainer(ctx context.Context, trainerID string) ([]*model.Booking, error)
	ListForMember(ctx context.Context, memberID string) ([]*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	checker   AvailabilityChecker
	validator *validator.BookingValidator
	events    EventPublisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	checker AvailabilityChecker,
	validator *validator.BookingValidator,
	events EventPublisher,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		checker:   checker,
		validator: validator,
		events:    events,
		clock:     clk,
		cfg:       cfg,
	}
}

// Book creates a pending booking once both the trainer and the member are
// free. Per-actor locks are held from the checks until the insert so two
// requests for the same trainer or member run one after the other. A request
// that finds a lock taken waits for it up to BookingLockWait, then fails with
// BOOKING_IN_PROGRESS.
func (s *bookingService) Book(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, validationError("Booking validation failed", err)
	}
	end, err := proposedEnd(req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	release, lockedAt, err := s.acquireLocks(ctx, req.TrainerID, req.MemberID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Everything done under the locks has to finish before the first one
	// can expire and be taken over.
	ctx, cancel := context.WithDeadline(ctx, lockedAt.Add(s.cfg.BookingLockTTL))
	defer cancel()

	if _, err := s.checker.IsTrainerAvailable(ctx, req.TrainerID, req.StartTime, req.DurationMinutes); err != nil {
		return nil, err
	}
	if _, err := s.checker.IsMemberAvailable(ctx, req.MemberID, req.StartTime, req.DurationMinutes); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	booking := &model.Booking{
		MemberID:        req.MemberID,
		TrainerID:       req.TrainerID,
		ServiceID:       req.ServiceID,
		StartTime:       req.StartTime,
		EndTime:         end,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Notes:           req.Notes,
		Status:          model.StatusPending,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"trainer_id", req.TrainerID,
			"member_id", req.MemberID,
			"service_id", req.ServiceID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"trainer_id", booking.TrainerID,
		"member_id", booking.MemberID,
		"start_time", booking.StartTime,
	)
	s.events.Publish(ctx, EventBookingCreated, booking)
	return booking, nil
}

func (s *bookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, "confirm", id, true, func(b *model.Booking) error {
		if b.Status != model.StatusPending {
			return apperrors.InvalidTransition(b.ID, b.Status.String(), apperrors.ReasonNotPending)
		}
		b.Status = model.StatusConfirmed
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, EventBookingConfirmed, booking)
	return booking, nil
}

// Cancel appends reason, when given, to the booking notes.
func (s *bookingService) Cancel(ctx context.Context, id string, reason string) (bool, error) {
	reason = sanitizer.TrimAndNormalize(reason)
	if err := s.validator.ValidateCancel(&model.CancelRequest{Reason: reason}); err != nil {
		return false, validationError("Cancel validation failed", err)
	}

	booking, err := s.transition(ctx, "cancel", id, true, func(b *model.Booking) error {
		switch b.Status {
		case model.StatusCancelled:
			return apperrors.InvalidTransition(b.ID, b.Status.String(), apperrors.ReasonAlreadyCancelled)
		case model.StatusCompleted:
			return apperrors.InvalidTransition(b.ID, b.Status.String(), apperrors.ReasonCannotCancelCompleted)
		}
		b.Status = model.StatusCancelled
		if reason != "" {
			b.Notes = sanitizer.AppendLine(b.Notes, "Cancelled: "+reason)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	s.events.Publish(ctx, EventBookingCancelled, booking)
	return true, nil
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.transition(ctx, "complete", id, true, func(b *model.Booking) error {
		if b.Status != model.StatusConfirmed {
			return apperrors.InvalidTransition(b.ID, b.Status.String(), apperrors.ReasonNotConfirmed)
		}
		b.Status = model.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, EventBookingCompleted, booking)
	return booking, nil
}

// SoftDelete hides the booking from every later check and listing. The
// status is left as it was. Deleting an already deleted booking succeeds
// without writing or announcing anything.
func (s *bookingService) SoftDelete(ctx context.Context, id string) (bool, error) {
	alreadyDeleted := false
	booking, err := s.transition(ctx, "delete", id, false, func(b *model.Booking) error {
		if !b.IsActive {
			alreadyDeleted = true
			return errUnchanged
		}
		b.IsActive = false
		return nil
	})
	if err != nil {
		return false, err
	}
	if alreadyDeleted {
		return true, nil
	}

	s.events.Publish(ctx, EventBookingDeleted, booking)
	return true, nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)
	booking, err := s.load(ctx, id, true)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeInternal {
			s.cfg.Log.Error("Failed to retrieve booking", "booking_id", id, "error", err)
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListForTrainer(ctx context.Context, trainerID string) ([]*model.Booking, error) {
	trainerID = sanitizer.SanitizeID(trainerID)
	if trainerID == "" {
		return nil, apperrors.InvalidInput("Trainer ID cannot be empty")
	}

	bookings, err := s.repo.LoadActiveForTrainer(ctx, trainerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list trainer bookings", "trainer_id", trainerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) ListForMember(ctx context.Context, memberID string) ([]*model.Booking, error) {
	memberID = sanitizer.SanitizeID(memberID)
	if memberID == "" {
		return nil, apperrors.InvalidInput("Member ID cannot be empty")
	}

	bookings, err := s.repo.LoadActiveForMember(ctx, memberID)
	if err != nil {
		s.cfg.Log.Error("Failed to list member bookings", "member_id", memberID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// --- Helpers ---

// transition loads the booking, lets apply mutate it and persists the result,
// all inside one transaction so concurrent transitions of the same booking
// serialize on the document.
func (s *bookingService) transition(
	ctx context.Context,
	op string,
	id string,
	requireActive bool,
	apply func(b *model.Booking) error,
) (*model.Booking, error) {
	id = sanitizer.SanitizeID(id)

	var (
		updated   *model.Booking
		unchanged bool
	)
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.load(txCtx, id, requireActive)
		if err != nil {
			return err
		}
		if err := apply(booking); err != nil {
			if errors.Is(err, errUnchanged) {
				updated, unchanged = booking, true
				return nil
			}
			return err
		}

		booking.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(txCtx, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to update booking", err)
		}
		updated = booking
		return nil
	})
	if err != nil {
		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodeInternal {
			s.cfg.Log.Error("Booking transition failed", "operation", op, "booking_id", id, "error", err)
		} else {
			s.cfg.Log.Warn("Booking transition rejected", "operation", op, "booking_id", id, "code", appErr.Code)
		}
		return nil, appErr
	}
	if unchanged {
		s.cfg.Log.Debug("Booking already in requested state", "operation", op, "booking_id", id)
		return updated, nil
	}

	s.cfg.Log.Info("Booking updated successfully",
		"operation", op,
		"id", updated.ID,
		"status", updated.Status,
		"is_active", updated.IsActive,
	)
	return updated, nil
}

// load maps store errors to AppErrors. With requireActive an inactive booking
// is reported as not found.
func (s *bookingService) load(ctx context.Context, id string, requireActive bool) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if requireActive && !booking.IsActive {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}

	return booking, nil
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.MemberID = sanitizer.SanitizeID(req.MemberID)
	req.TrainerID = sanitizer.SanitizeID(req.TrainerID)
	req.ServiceID = sanitizer.SanitizeID(req.ServiceID)
	req.Notes = sanitizer.SanitizeNotes(req.Notes)
}

// acquireLocks takes the trainer lock, then the member lock, under one owner
// token for this call. It returns when the trainer lock was taken; the
// returned func releases whatever was taken.
func (s *bookingService) acquireLocks(ctx context.Context, trainerID, memberID string) (func(), time.Time, error) {
	owner := uuid.NewString()

	trainerKey := "trainer:" + trainerID
	lockedAt, err := s.acquireLock(ctx, trainerKey, owner)
	if err != nil {
		return nil, time.Time{}, s.lockError(ctx, err, trainerKey, apperrors.BookingInProgress("trainer_id", trainerID))
	}

	memberKey := "member:" + memberID
	if _, err := s.acquireLock(ctx, memberKey, owner); err != nil {
		s.releaseLock(ctx, trainerKey, owner)
		return nil, time.Time{}, s.lockError(ctx, err, memberKey, apperrors.BookingInProgress("member_id", memberID))
	}

	return func() {
		s.releaseLock(ctx, memberKey, owner)
		s.releaseLock(ctx, trainerKey, owner)
	}, lockedAt, nil
}

// acquireLock retries a held lock with exponential backoff until it frees,
// BookingLockWait runs out or ctx is done. Store faults are not retried. The
// returned time is taken before the successful attempt, so it never falls
// after the moment the lock's TTL started.
func (s *bookingService) acquireLock(ctx context.Context, key, owner string) (time.Time, error) {
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if s.cfg.BookingLockWait > 0 {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = lockRetryInitialInterval
		exp.MaxInterval = lockRetryMaxInterval
		exp.MaxElapsedTime = s.cfg.BookingLockWait
		policy = exp
	}

	var attemptedAt time.Time
	err := backoff.Retry(func() error {
		attemptedAt = time.Now()
		err := s.lockRepo.Acquire(ctx, key, owner, s.cfg.BookingLockTTL)
		if err == nil || errors.Is(err, bookingserrors.ErrLockHeld) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
	return attemptedAt, err
}

// lockError reports a lock that stayed held, or a caller that stopped waiting
// for it, as busy. Anything else is a store fault.
func (s *bookingService) lockError(ctx context.Context, err error, key string, busy *apperrors.AppError) error {
	if errors.Is(err, bookingserrors.ErrLockHeld) || ctx.Err() != nil {
		s.cfg.Log.Warn("Gave up waiting for booking lock", "lock_id", key, "error", err)
		return busy
	}
	s.cfg.Log.Error("Failed to acquire booking lock", "lock_id", key, "error", err)
	return apperrors.Internal("Failed to acquire booking lock", err)
}

// releaseLock runs even when ctx has been cancelled; a lock left behind would
// block the actor until it expires.
func (s *bookingService) releaseLock(ctx context.Context, key, owner string) {
	err := s.lockRepo.Release(context.WithoutCancel(ctx), key, owner)
	switch {
	case err == nil:
	case errors.Is(err, bookingserrors.ErrLockNotOwned):
		s.cfg.Log.Warn("Booking lock expired before release", "lock_id", key)
	default:
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", key, "error", err)
	}
}

func validationError(message string, err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Fields())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
