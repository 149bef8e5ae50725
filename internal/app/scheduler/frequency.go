package scheduler

import (
	"errors"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// ErrInvalidFrequency reports a times-per-day value that does not divide a
// day into whole-second slices. The API layer only admits the enumerated set,
// so hitting this from a stored subscription is a programming error.
var ErrInvalidFrequency = errors.New("scheduler: times per day must evenly divide 86400 seconds")

// IntervalSeconds converts a daily frequency into the slice length in seconds.
func IntervalSeconds(timesPerDay int) (int, error) {
	if timesPerDay <= 0 || secondsPerDay%timesPerDay != 0 {
		return 0, ErrInvalidFrequency
	}
	return secondsPerDay / timesPerDay, nil
}

// NextFireTime returns the earliest slice boundary at or after now, where
// boundaries partition the day into timesPerDay equal slices starting at
// midnight. A now that sits exactly on a boundary resolves to that boundary.
func NextFireTime(timesPerDay int, now, midnight time.Time) (time.Time, error) {
	interval, err := IntervalSeconds(timesPerDay)
	if err != nil {
		return time.Time{}, err
	}

	elapsed := now.Sub(midnight)
	if elapsed <= 0 {
		return midnight, nil
	}

	step := time.Duration(interval) * time.Second
	slices := elapsed / step
	if elapsed%step != 0 {
		slices++
	}
	return midnight.Add(time.Duration(slices) * step), nil
}

// MidnightBefore returns the most recent midnight at or before now in loc.
func MidnightBefore(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
