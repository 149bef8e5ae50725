package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
)

func newTestRegistry(t *testing.T, now time.Time) *Registry {
	t.Helper()
	r := NewRegistry(time.UTC, zap.NewNop().Sugar())
	r.now = func() time.Time { return now }
	return r
}

func activeSub(id string, timesPerDay int) *models.Subscription {
	return &models.Subscription{ID: id, UserID: "u-" + id, CityID: "c-" + id, TimesPerDay: timesPerDay, IsActive: true}
}

func TestRegistry_Register(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(t, midnight.Add(9*time.Hour+10*time.Minute))

	require.NoError(t, r.Register(activeSub("s1", 6)))

	job, ok := r.job("s1")
	require.True(t, ok)
	require.Equal(t, 14400, job.IntervalSeconds)
	require.Equal(t, midnight.Add(12*time.Hour), job.NextFireAt)
	require.Zero(t, job.Generation)
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))

	require.NoError(t, r.Register(activeSub("s1", 2)))
	require.ErrorIs(t, r.Register(activeSub("s1", 4)), ErrAlreadyScheduled)
	require.Equal(t, 1, r.Len())
}

func TestRegistry_Register_Inactive(t *testing.T) {
	r := newTestRegistry(t, time.Now())
	sub := activeSub("s1", 2)
	sub.IsActive = false
	require.ErrorIs(t, r.Register(sub), ErrInactiveSubscription)
}

func TestRegistry_Reschedule(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(t, midnight.Add(9*time.Hour+10*time.Minute))
	require.NoError(t, r.Register(activeSub("s1", 1)))

	// Frequency change takes effect from now, not retroactively from midnight.
	require.NoError(t, r.Reschedule("s1", 12))

	job, ok := r.job("s1")
	require.True(t, ok)
	require.Equal(t, 7200, job.IntervalSeconds)
	require.Equal(t, midnight.Add(10*time.Hour), job.NextFireAt)
	require.Equal(t, uint64(1), job.Generation)
}

func TestRegistry_Reschedule_Unknown(t *testing.T) {
	r := newTestRegistry(t, time.Now())
	require.ErrorIs(t, r.Reschedule("missing", 2), ErrNotScheduled)
}

func TestRegistry_Cancel_Idempotent(t *testing.T) {
	r := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, r.Register(activeSub("s1", 2)))

	r.Cancel("s1")
	r.Cancel("s1")
	r.Cancel("never-existed")
	require.Zero(t, r.Len())
}

func TestRegistry_Reconcile_Idempotent(t *testing.T) {
	r := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))

	active := []*models.Subscription{activeSub("s1", 2), activeSub("s2", 6)}
	r.Reconcile(active)
	require.Equal(t, 2, r.Len())
	first, _ := r.job("s1")

	r.Reconcile(active)
	require.Equal(t, 2, r.Len())
	second, _ := r.job("s1")
	require.Equal(t, first, second)
}

func TestRegistry_Reconcile_RemovesOrphans(t *testing.T) {
	r := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, r.Register(activeSub("gone", 2)))

	r.Reconcile([]*models.Subscription{activeSub("s1", 4)})

	require.Equal(t, 1, r.Len())
	_, ok := r.job("gone")
	require.False(t, ok)
	_, ok = r.job("s1")
	require.True(t, ok)
}

func TestRegistry_DueJobs_OrderAndFilter(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(t, midnight.Add(1*time.Hour))

	// b and a land on 12:00 (2/day), z on 02:00 (12/day).
	require.NoError(t, r.Register(activeSub("b", 2)))
	require.NoError(t, r.Register(activeSub("a", 2)))
	require.NoError(t, r.Register(activeSub("z", 12)))

	due := r.DueJobs(midnight.Add(12 * time.Hour))
	require.Len(t, due, 3)
	require.Equal(t, "z", due[0].SubscriptionID)
	require.Equal(t, "a", due[1].SubscriptionID)
	require.Equal(t, "b", due[2].SubscriptionID)

	due = r.DueJobs(midnight.Add(2 * time.Hour))
	require.Len(t, due, 1)
	require.Equal(t, "z", due[0].SubscriptionID)

	due = r.DueJobs(midnight.Add(90 * time.Minute))
	require.Empty(t, due)
}

func TestRegistry_Advance_AnchoredAtPreviousBoundary(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(t, midnight.Add(9*time.Hour+10*time.Minute))
	require.NoError(t, r.Register(activeSub("s1", 6))) // next = 12:00

	// The loop advances a little after the boundary fired.
	r.now = func() time.Time { return midnight.Add(12*time.Hour + 3*time.Second) }
	require.True(t, r.Advance("s1", 0))

	job, _ := r.job("s1")
	require.Equal(t, midnight.Add(16*time.Hour), job.NextFireAt)
	require.Equal(t, uint64(1), job.Generation)
}

func TestRegistry_Advance_SkipsMissedBoundaries(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(t, midnight.Add(1*time.Hour))
	require.NoError(t, r.Register(activeSub("s1", 6))) // next = 04:00

	// Two whole boundaries passed before the loop caught up.
	r.now = func() time.Time { return midnight.Add(13 * time.Hour) }
	require.True(t, r.Advance("s1", 0))

	job, _ := r.job("s1")
	require.Equal(t, midnight.Add(16*time.Hour), job.NextFireAt)
}

func TestRegistry_Advance_StaleGenerationDiscarded(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(t, midnight.Add(1*time.Hour))
	require.NoError(t, r.Register(activeSub("s1", 6)))

	// A reschedule lands while a dispatch for generation 0 is in flight.
	require.NoError(t, r.Reschedule("s1", 12))
	rescheduled, _ := r.job("s1")

	require.False(t, r.Advance("s1", 0))
	after, _ := r.job("s1")
	require.Equal(t, rescheduled, after)
}

func TestRegistry_Advance_CancelledJob(t *testing.T) {
	r := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, r.Register(activeSub("s1", 2)))
	r.Cancel("s1")

	require.False(t, r.Advance("s1", 0))
	require.Zero(t, r.Len())
}

func TestRegistry_AtMostOneJobPerSubscription(t *testing.T) {
	r := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))

	sub := activeSub("s1", 2)
	_ = r.Register(sub)
	_ = r.Register(sub)
	_ = r.Reschedule("s1", 6)
	r.Cancel("s1")
	_ = r.Register(sub)
	_ = r.Reschedule("s1", 12)

	require.Equal(t, 1, r.Len())
}
