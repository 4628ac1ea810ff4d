package http

import (
	"net/http"
	"strconv"
	"time"

	apperrors "gymcore/pkg/errors"
)

// ExtractSlot reads the "start" (RFC3339) and "duration_minutes" query
// parameters. The offset in start is kept; it decides which weekday and
// wall-clock time the slot is matched against.
func ExtractSlot(r *http.Request) (time.Time, int, error) {
	query := r.URL.Query()

	startStr := query.Get("start")
	if startStr == "" {
		return time.Time{}, 0, apperrors.InvalidInput("start parameter is required")
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, 0, apperrors.InvalidInput("invalid start parameter, must be RFC3339: " + startStr)
	}

	durationStr := query.Get("duration_minutes")
	if durationStr == "" {
		return time.Time{}, 0, apperrors.InvalidInput("duration_minutes parameter is required")
	}
	duration, err := strconv.Atoi(durationStr)
	if err != nil {
		return time.Time{}, 0, apperrors.InvalidInput("invalid duration_minutes parameter: " + durationStr)
	}

	return start, duration, nil
}
