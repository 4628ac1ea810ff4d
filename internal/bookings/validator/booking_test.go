package validator

import (
	"strings"
	"testing"
	"time"

	"gymcore/pkg/logger"
	"gymcore/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	memberID  = "65f1a2b3c4d5e6f708192a3b"
	trainerID = "65f1a2b3c4d5e6f708192a3c"
	serviceID = "65f1a2b3c4d5e6f708192a3d"
)

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		MemberID:        memberID,
		TrainerID:       trainerID,
		ServiceID:       serviceID,
		StartTime:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		PriceCents:      4500,
		Notes:           "first session",
	}
}

func TestBookingValidator_Validate(t *testing.T) {
	v := NewBookingValidator(logger.NewNop())

	tests := []struct {
		name      string
		mutate    func(r *model.BookingRequest)
		wantField string
	}{
		{name: "valid", mutate: func(r *model.BookingRequest) {}},
		{name: "free session", mutate: func(r *model.BookingRequest) { r.PriceCents = 0 }},
		{name: "missing member", mutate: func(r *model.BookingRequest) { r.MemberID = "" }, wantField: "member_id"},
		{name: "trainer not an object id", mutate: func(r *model.BookingRequest) { r.TrainerID = "trainer-7" }, wantField: "trainer_id"},
		{name: "zero start", mutate: func(r *model.BookingRequest) { r.StartTime = time.Time{} }, wantField: "start_time"},
		{name: "zero duration", mutate: func(r *model.BookingRequest) { r.DurationMinutes = 0 }, wantField: "duration_minutes"},
		{name: "negative duration", mutate: func(r *model.BookingRequest) { r.DurationMinutes = -30 }, wantField: "duration_minutes"},
		{name: "duration longer than a day", mutate: func(r *model.BookingRequest) { r.DurationMinutes = 1441 }, wantField: "duration_minutes"},
		{name: "negative price", mutate: func(r *model.BookingRequest) { r.PriceCents = -1 }, wantField: "price_cents"},
		{name: "notes too long", mutate: func(r *model.BookingRequest) { r.Notes = strings.Repeat("x", 1001) }, wantField: "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.Validate(req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Contains(t, verrs.Fields(), tt.wantField)
		})
	}
}

func TestBookingValidator_ValidateCancel(t *testing.T) {
	v := NewBookingValidator(logger.NewNop())

	assert.NoError(t, v.ValidateCancel(&model.CancelRequest{}))
	assert.NoError(t, v.ValidateCancel(&model.CancelRequest{Reason: "feeling sick"}))

	var verrs ValidationErrors
	require.ErrorAs(t, v.ValidateCancel(&model.CancelRequest{Reason: strings.Repeat("x", 501)}), &verrs)
	assert.Equal(t, "reason", verrs[0].Field)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "member_id", Message: "member_id is required"},
		{Field: "duration_minutes", Message: "duration_minutes must be greater than 0"},
	}
	assert.Equal(t,
		"validation failed: 2 error(s): [member_id: member_id is required; duration_minutes: duration_minutes must be greater than 0]",
		errs.Error(),
	)
	assert.Empty(t, ValidationErrors{}.Error())
}
