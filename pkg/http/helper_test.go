package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "gymcore/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSlot(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantStart    time.Time
		wantDuration int
		wantErr      bool
	}{
		{
			name:         "valid",
			query:        "start=2026-03-02T10:00:00Z&duration_minutes=60",
			wantStart:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			wantDuration: 60,
		},
		{
			name:         "offset preserved",
			query:        "start=2026-03-02T10:00:00%2B02:00&duration_minutes=45",
			wantStart:    time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
			wantDuration: 45,
		},
		{name: "missing start", query: "duration_minutes=60", wantErr: true},
		{name: "bad start", query: "start=monday&duration_minutes=60", wantErr: true},
		{name: "missing duration", query: "start=2026-03-02T10:00:00Z", wantErr: true},
		{name: "bad duration", query: "start=2026-03-02T10:00:00Z&duration_minutes=an-hour", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)

			start, duration, err := ExtractSlot(r)
			if tt.wantErr {
				assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(start))
			assert.Equal(t, tt.wantDuration, duration)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteError(rec, apperrors.TrainerConflict("t1", apperrors.ReasonOverlappingBooking)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"code":"TRAINER_CONFLICT","message":"Trainer already has a booking that overlaps the requested slot","details":{"trainer_id":"t1","reason":"overlapping_booking"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, WriteError(rec, errors.New("dial tcp 10.0.0.7:27017: refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.7")
}
