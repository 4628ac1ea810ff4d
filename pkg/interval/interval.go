// Package interval implements half-open time range arithmetic used by the
// scheduling checks. A range [start, end) contains start but not end, so two
// ranges that merely touch do not overlap.
package interval

import "time"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share an instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Contains reports whether [aStart, aEnd) lies entirely inside
// [windowStart, windowEnd).
func Contains(windowStart, windowEnd, aStart, aEnd time.Time) bool {
	return !aStart.Before(windowStart) && !aEnd.After(windowEnd)
}

// End returns start plus durationMinutes.
func End(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}

// SameDay reports whether the range [start, end) stays on start's calendar
// day. An end of exactly midnight of the following day still counts.
func SameDay(start, end time.Time) bool {
	y, m, d := start.Date()
	nextMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, start.Location())
	return !end.After(nextMidnight)
}
