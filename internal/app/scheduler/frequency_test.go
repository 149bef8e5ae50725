package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntervalSeconds(t *testing.T) {
	cases := []struct {
		timesPerDay int
		want        int
	}{
		{1, 86400},
		{2, 43200},
		{4, 21600},
		{6, 14400},
		{12, 7200},
	}
	for _, tc := range cases {
		got, err := IntervalSeconds(tc.timesPerDay)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestIntervalSeconds_Invalid(t *testing.T) {
	for _, n := range []int{0, -1, 7, 11, 86401} {
		_, err := IntervalSeconds(n)
		require.ErrorIs(t, err, ErrInvalidFrequency, "timesPerDay=%d", n)
	}
}

func TestNextFireTime_SixPerDay(t *testing.T) {
	// 6/day means 4-hour slices; 09:10 rounds up to 12:00.
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	now := midnight.Add(9*time.Hour + 10*time.Minute)

	got, err := NextFireTime(6, now, midnight)
	require.NoError(t, err)
	require.Equal(t, midnight.Add(12*time.Hour), got)
}

func TestNextFireTime_OnBoundaryResolvesToBoundary(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	now := midnight.Add(8 * time.Hour)

	got, err := NextFireTime(6, now, midnight)
	require.NoError(t, err)
	require.Equal(t, now, got)
}

func TestNextFireTime_AtMidnight(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)

	got, err := NextFireTime(1, midnight, midnight)
	require.NoError(t, err)
	require.Equal(t, midnight, got)
}

func TestNextFireTime_CeilingProperty(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	offsets := []time.Duration{
		0,
		time.Second,
		37 * time.Minute,
		3*time.Hour + 59*time.Minute + 59*time.Second,
		4 * time.Hour,
		11*time.Hour + 59*time.Minute,
		12 * time.Hour,
		23*time.Hour + 59*time.Minute + 59*time.Second,
	}

	for _, timesPerDay := range []int{1, 2, 4, 6, 12} {
		interval, err := IntervalSeconds(timesPerDay)
		require.NoError(t, err)
		step := time.Duration(interval) * time.Second

		for _, off := range offsets {
			now := midnight.Add(off)
			got, err := NextFireTime(timesPerDay, now, midnight)
			require.NoError(t, err)

			// On or after now, on the slice grid, and the smallest such value.
			require.False(t, got.Before(now), "timesPerDay=%d off=%v", timesPerDay, off)
			require.Zero(t, got.Sub(midnight)%step, "timesPerDay=%d off=%v", timesPerDay, off)
			require.True(t, got.Add(-step).Before(now), "timesPerDay=%d off=%v", timesPerDay, off)
		}
	}
}

func TestMidnightBefore(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)

	now := time.Date(2023, 4, 12, 1, 30, 0, 0, time.UTC) // 04:30 in Kyiv (UTC+3)
	got := MidnightBefore(now, loc)
	require.Equal(t, time.Date(2023, 4, 12, 0, 0, 0, 0, loc), got)
}
