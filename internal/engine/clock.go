package engine

import "time"

// TimeLayout is the timestamp format stamped into records
// (ISO 8601, UTC, millisecond precision).
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Clock supplies wall-clock time for record timestamps.
// Implemented by SystemClock (production) and testutil.StepClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
