package model

import (
	"fmt"
	"time"
)

// AvailabilityWindow is one recurring weekly range during which a trainer can
// be booked. A trainer may hold several windows for the same day.
type AvailabilityWindow struct {
	ID        string `json:"id,omitempty" bson:"_id,omitempty"`
	TrainerID string `json:"trainer_id" bson:"trainer_id"`
	DayOfWeek int    `json:"day_of_week" bson:"day_of_week"`
	StartTime string `json:"start_time" bson:"start_time"`
	EndTime   string `json:"end_time" bson:"end_time"`
	IsActive  bool   `json:"is_active" bson:"is_active"`
}

// On anchors the window to the calendar day of ref, in ref's location.
func (w AvailabilityWindow) On(ref time.Time) (time.Time, time.Time, error) {
	startMin, err := ParseTimeOfDay(w.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := ParseTimeOfDay(w.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endMin <= startMin {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %s is not after start %s", w.EndTime, w.StartTime)
	}

	y, m, d := ref.Date()
	loc := ref.Location()
	return time.Date(y, m, d, 0, startMin, 0, 0, loc), time.Date(y, m, d, 0, endMin, 0, 0, loc), nil
}

const minutesPerDay = 24 * 60

// ParseTimeOfDay converts "HH:MM" into minutes after midnight. "24:00" is
// accepted as the end of the day.
func ParseTimeOfDay(s string) (int, error) {
	if s == "24:00" {
		return minutesPerDay, nil
	}
	if len(s) != len("15:04") {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
