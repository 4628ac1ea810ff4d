package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeScheduleMismatch  = "SCHEDULE_MISMATCH"
	CodeTrainerConflict   = "TRAINER_CONFLICT"
	CodeMemberConflict    = "MEMBER_CONFLICT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeBookingInProgress = "BOOKING_IN_PROGRESS"
	CodeInternal          = "INTERNAL_ERROR"
	CodeTimeout           = "TIMEOUT"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

// Reasons attached to INVALID_TRANSITION and conflict errors under the
// "reason" detail key.
const (
	ReasonNotPending            = "not_pending"
	ReasonNotConfirmed          = "not_confirmed"
	ReasonAlreadyCancelled      = "already_cancelled"
	ReasonCannotCancelCompleted = "cannot_cancel_completed"
	ReasonOverlappingBooking    = "overlapping_booking"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// Reason returns the "reason" detail, or "" if none was set.
func (e *AppError) Reason() string {
	if e.Details == nil {
		return ""
	}
	r, _ := e.Details["reason"].(string)
	return r
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func ScheduleMismatch(trainerID string, start time.Time) *AppError {
	return &AppError{
		Code:       CodeScheduleMismatch,
		Message:    "Trainer does not work during the requested slot",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"trainer_id": trainerID,
			"start_time": start.Format(time.RFC3339),
		},
	}
}

func TrainerConflict(trainerID, reason string) *AppError {
	return &AppError{
		Code:       CodeTrainerConflict,
		Message:    "Trainer already has a booking that overlaps the requested slot",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"trainer_id": trainerID,
			"reason":     reason,
		},
	}
}

func MemberConflict(memberID, reason string) *AppError {
	return &AppError{
		Code:       CodeMemberConflict,
		Message:    "Member already has a booking that overlaps the requested slot",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"member_id": memberID,
			"reason":    reason,
		},
	}
}

// BookingInProgress means another booking for the same trainer or member
// kept its lock for longer than the caller waited. Nothing was written, and
// the request can be retried as is.
func BookingInProgress(field, id string) *AppError {
	return &AppError{
		Code:       CodeBookingInProgress,
		Message:    "Another booking for the same participant is being processed, retry shortly",
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			field: id,
		},
	}
}

func InvalidTransition(bookingID, from, reason string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Booking cannot change state from %s", from),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"booking_id": bookingID,
			"status":     from,
			"reason":     reason,
		},
	}
}

// Internal hides err from the response body; it only surfaces in logs.
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// CodeOf returns the code of the AppError in err's chain, CodeInternal for
// any other non-nil error and "" for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsBusinessRejection reports whether err is an expected outcome a caller
// should branch on rather than a fault in the service or its store.
func IsBusinessRejection(err error) bool {
	switch CodeOf(err) {
	case "", CodeInternal, CodeTimeout, CodeUnavailable:
		return false
	default:
		return true
	}
}
