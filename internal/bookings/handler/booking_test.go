package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "gymcore/pkg/errors"
	"gymcore/pkg/logger"
	"gymcore/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Stub services
// ────────────────────────────────────────────────

type stubBookingService struct {
	bookFunc     func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	confirmFunc  func(ctx context.Context, id string) (*model.Booking, error)
	cancelFunc   func(ctx context.Context, id, reason string) (bool, error)
	completeFunc func(ctx context.Context, id string) (*model.Booking, error)
	deleteFunc   func(ctx context.Context, id string) (bool, error)
	getFunc      func(ctx context.Context, id string) (*model.Booking, error)
	listFunc     func(ctx context.Context, id string) ([]*model.Booking, error)
}

func (s *stubBookingService) Book(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	return s.bookFunc(ctx, req)
}

func (s *stubBookingService) Confirm(ctx context.Context, id string) (*model.Booking, error) {
	return s.confirmFunc(ctx, id)
}

func (s *stubBookingService) Cancel(ctx context.Context, id string, reason string) (bool, error) {
	return s.cancelFunc(ctx, id, reason)
}

func (s *stubBookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	return s.completeFunc(ctx, id)
}

func (s *stubBookingService) SoftDelete(ctx context.Context, id string) (bool, error) {
	return s.deleteFunc(ctx, id)
}

func (s *stubBookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	return s.getFunc(ctx, id)
}

func (s *stubBookingService) ListForTrainer(ctx context.Context, trainerID string) ([]*model.Booking, error) {
	return s.listFunc(ctx, trainerID)
}

func (s *stubBookingService) ListForMember(ctx context.Context, memberID string) ([]*model.Booking, error) {
	return s.listFunc(ctx, memberID)
}

type stubChecker struct {
	trainerFunc func(ctx context.Context, trainerID string, start time.Time, minutes int) (bool, error)
}

func (s *stubChecker) IsTrainerAvailable(ctx context.Context, trainerID string, start time.Time, minutes int) (bool, error) {
	return s.trainerFunc(ctx, trainerID, start, minutes)
}

func (s *stubChecker) IsMemberAvailable(ctx context.Context, memberID string, start time.Time, minutes int) (bool, error) {
	return true, nil
}

type stubSearch struct {
	findFunc func(ctx context.Context, serviceID string, start time.Time, minutes int) ([]string, error)
}

func (s *stubSearch) FindAvailableTrainers(ctx context.Context, serviceID string, start time.Time, minutes int) ([]string, error) {
	return s.findFunc(ctx, serviceID, start, minutes)
}

func newRouter(bookings *stubBookingService, checker *stubChecker, search *stubSearch) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(bookings, checker, search, logger.NewNop()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details map[string]any  `json:"details"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate(t *testing.T) {
	var got *model.BookingRequest
	svc := &stubBookingService{
		bookFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
			got = req
			return &model.Booking{ID: "b1", TrainerID: req.TrainerID, Status: model.StatusPending, IsActive: true}, nil
		},
	}
	router := newRouter(svc, nil, nil)

	rec := serve(router, http.MethodPost, "/api/v1/bookings", `{
		"member_id": "65f1a2b3c4d5e6f708192b01",
		"trainer_id": "65f1a2b3c4d5e6f708192a01",
		"service_id": "65f1a2b3c4d5e6f708192c01",
		"start_time": "2026-03-02T10:00:00Z",
		"duration_minutes": 60,
		"price_cents": 4500
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, 60, got.DurationMinutes)
	assert.True(t, got.StartTime.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)))

	var booking model.Booking
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &booking))
	assert.Equal(t, "b1", booking.ID)
	assert.Equal(t, model.StatusPending, booking.Status)
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperrors.Validation("Booking validation failed", map[string]any{"duration_minutes": "required"}), http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"schedule mismatch", apperrors.ScheduleMismatch("t1", time.Now()), http.StatusConflict, apperrors.CodeScheduleMismatch},
		{"trainer conflict", apperrors.TrainerConflict("t1", apperrors.ReasonOverlappingBooking), http.StatusConflict, apperrors.CodeTrainerConflict},
		{"member conflict", apperrors.MemberConflict("m1", apperrors.ReasonOverlappingBooking), http.StatusConflict, apperrors.CodeMemberConflict},
		{"booking in progress", apperrors.BookingInProgress("trainer_id", "t1"), http.StatusConflict, apperrors.CodeBookingInProgress},
		{"store fault", apperrors.Internal("Failed to create booking", errors.New("dial tcp: refused")), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubBookingService{
				bookFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
					return nil, tt.err
				},
			}
			rec := serve(newRouter(svc, nil, nil), http.MethodPost, "/api/v1/bookings", `{}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.NotContains(t, rec.Body.String(), "dial tcp")
		})
	}
}

func TestCreate_MalformedBody(t *testing.T) {
	svc := &stubBookingService{
		bookFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	rec := serve(newRouter(svc, nil, nil), http.MethodPost, "/api/v1/bookings", `{"duration_minutes": "sixty"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, decode(t, rec).Code)
}

func TestLifecycleRoutes(t *testing.T) {
	var calls []string
	record := func(op, id string) { calls = append(calls, op+":"+id) }
	svc := &stubBookingService{
		confirmFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			record("confirm", id)
			return &model.Booking{ID: id, Status: model.StatusConfirmed}, nil
		},
		cancelFunc: func(ctx context.Context, id, reason string) (bool, error) {
			record("cancel", id+"/"+reason)
			return true, nil
		},
		completeFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			record("complete", id)
			return &model.Booking{ID: id, Status: model.StatusCompleted}, nil
		},
		deleteFunc: func(ctx context.Context, id string) (bool, error) {
			record("delete", id)
			return true, nil
		},
	}
	router := newRouter(svc, nil, nil)

	rec := serve(router, http.MethodPost, "/api/v1/bookings/id/b1/confirm", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/bookings/id/b1/cancel", `{"reason":"sick"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cancelled":true}`, string(decode(t, rec).Data))

	rec = serve(router, http.MethodPost, "/api/v1/bookings/id/b2/cancel", "")
	assert.Equal(t, http.StatusOK, rec.Code, "body is optional")

	rec = serve(router, http.MethodPost, "/api/v1/bookings/id/b1/complete", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodDelete, "/api/v1/bookings/id/b1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, []string{"confirm:b1", "cancel:b1/sick", "cancel:b2/", "complete:b1", "delete:b1"}, calls)
}

func TestCancel_InvalidTransition(t *testing.T) {
	svc := &stubBookingService{
		cancelFunc: func(ctx context.Context, id, reason string) (bool, error) {
			return false, apperrors.InvalidTransition(id, "completed", apperrors.ReasonCannotCancelCompleted)
		},
	}

	rec := serve(newRouter(svc, nil, nil), http.MethodPost, "/api/v1/bookings/id/b1/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, apperrors.CodeInvalidTransition, env.Code)
	assert.Equal(t, apperrors.ReasonCannotCancelCompleted, env.Details["reason"])
}

func TestGetByID_NotFound(t *testing.T) {
	svc := &stubBookingService{
		getFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}

	rec := serve(newRouter(svc, nil, nil), http.MethodGet, "/api/v1/bookings/id/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.CodeNotFound, decode(t, rec).Code)
}

func TestListRoutes(t *testing.T) {
	var ids []string
	svc := &stubBookingService{
		listFunc: func(ctx context.Context, id string) ([]*model.Booking, error) {
			ids = append(ids, id)
			return []*model.Booking{{ID: "b1"}}, nil
		},
	}
	router := newRouter(svc, nil, nil)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/bookings/trainer/t1", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/bookings/member/m1", "").Code)
	assert.Equal(t, []string{"t1", "m1"}, ids)
}

func TestTrainerAvailability(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		result     bool
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "available",
			query:      "start=2026-03-02T10:00:00Z&duration_minutes=60",
			result:     true,
			wantStatus: http.StatusOK,
			wantBody:   `{"trainer_id":"t1","available":true}`,
		},
		{
			name:       "schedule mismatch is an answer",
			query:      "start=2026-03-02T10:00:00Z&duration_minutes=60",
			err:        apperrors.ScheduleMismatch("t1", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)),
			wantStatus: http.StatusOK,
			wantBody:   `{"trainer_id":"t1","available":false,"code":"SCHEDULE_MISMATCH","message":"Trainer does not work during the requested slot"}`,
		},
		{
			name:       "validation is an error",
			query:      "start=2026-03-02T10:00:00Z&duration_minutes=0",
			err:        apperrors.Validation("Duration must be greater than zero", nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing start",
			query:      "duration_minutes=60",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store fault",
			query:      "start=2026-03-02T10:00:00Z&duration_minutes=60",
			err:        apperrors.Internal("Failed to check trainer availability", errors.New("boom")),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &stubChecker{
				trainerFunc: func(ctx context.Context, trainerID string, start time.Time, minutes int) (bool, error) {
					return tt.result, tt.err
				},
			}

			rec := serve(newRouter(nil, checker, nil), http.MethodGet, "/api/v1/trainers/t1/availability?"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(decode(t, rec).Data))
			}
		})
	}
}

func TestAvailableTrainers(t *testing.T) {
	search := &stubSearch{
		findFunc: func(ctx context.Context, serviceID string, start time.Time, minutes int) ([]string, error) {
			assert.Equal(t, "s1", serviceID)
			assert.Equal(t, 45, minutes)
			return []string{"t3", "t1"}, nil
		},
	}

	rec := serve(newRouter(nil, nil, search), http.MethodGet, "/api/v1/services/s1/available-trainers?start=2026-03-02T10:00:00Z&duration_minutes=45", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["t3","t1"]`, string(decode(t, rec).Data))

	empty := &stubSearch{
		findFunc: func(ctx context.Context, serviceID string, start time.Time, minutes int) ([]string, error) {
			return []string{}, nil
		},
	}
	rec = serve(newRouter(nil, nil, empty), http.MethodGet, "/api/v1/services/s1/available-trainers?start=2026-03-02T10:00:00Z&duration_minutes=45", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
}
