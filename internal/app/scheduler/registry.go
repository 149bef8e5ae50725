package scheduler

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
)

var (
	// ErrAlreadyScheduled is returned by Register when a live job exists for
	// the subscription. Callers treat it as an idempotent no-op signal.
	ErrAlreadyScheduled = errors.New("scheduler: subscription already scheduled")
	// ErrNotScheduled is returned by Reschedule for an unknown subscription.
	ErrNotScheduled = errors.New("scheduler: subscription not scheduled")
	// ErrInactiveSubscription rejects Register for a deactivated subscription.
	ErrInactiveSubscription = errors.New("scheduler: subscription is not active")
)

// ScheduledJob maps one active subscription to its recurring firing schedule.
// NextFireAt always sits on the slice grid: a whole multiple of the interval
// past midnight in the registry's reference timezone.
type ScheduledJob struct {
	SubscriptionID  string
	TimesPerDay     int
	IntervalSeconds int
	NextFireAt      time.Time
	// Generation increments on every reschedule and re-arm. In-flight work
	// that carries a stale generation must not touch the job.
	Generation uint64
}

// Registry owns the subscription-to-job mapping. The scheduler runtime is the
// single writer for firing re-arms; CRUD paths call Register, Reschedule and
// Cancel synchronously with their persistence writes. All mutations are
// serialized by one mutex, the generation counter guards stale in-flight
// triggers.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*ScheduledJob

	loc *time.Location
	log *zap.SugaredLogger
	now func() time.Time
}

func NewRegistry(loc *time.Location, log *zap.SugaredLogger) *Registry {
	return &Registry{
		jobs: make(map[string]*ScheduledJob),
		loc:  loc,
		log:  log,
		now:  time.Now,
	}
}

// Register creates a job for an active subscription, anchored to the next
// slice boundary after the current time.
func (r *Registry) Register(sub *models.Subscription) error {
	if sub == nil || !sub.IsActive {
		return ErrInactiveSubscription
	}

	interval, err := IntervalSeconds(sub.TimesPerDay)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[sub.ID]; ok {
		return ErrAlreadyScheduled
	}

	now := r.now()
	next, err := NextFireTime(sub.TimesPerDay, now, MidnightBefore(now, r.loc))
	if err != nil {
		return err
	}

	r.jobs[sub.ID] = &ScheduledJob{
		SubscriptionID:  sub.ID,
		TimesPerDay:     sub.TimesPerDay,
		IntervalSeconds: interval,
		NextFireAt:      next,
	}
	r.log.Infow("job registered", "subscription_id", sub.ID, "times_per_day", sub.TimesPerDay, "next_fire_at", next)
	return nil
}

// Reschedule applies a frequency change. The new next fire time is computed
// from the current moment, so the change takes effect immediately rather
// than retroactively from midnight.
func (r *Registry) Reschedule(subscriptionID string, newTimesPerDay int) error {
	interval, err := IntervalSeconds(newTimesPerDay)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[subscriptionID]
	if !ok {
		return ErrNotScheduled
	}

	now := r.now()
	next, err := NextFireTime(newTimesPerDay, now, MidnightBefore(now, r.loc))
	if err != nil {
		return err
	}

	job.TimesPerDay = newTimesPerDay
	job.IntervalSeconds = interval
	job.NextFireAt = next
	job.Generation++
	r.log.Infow("job rescheduled", "subscription_id", subscriptionID, "times_per_day", newTimesPerDay,
		"next_fire_at", next, "generation", job.Generation)
	return nil
}

// Cancel removes the job if present. Safe to call for unknown ids.
func (r *Registry) Cancel(subscriptionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[subscriptionID]; ok {
		delete(r.jobs, subscriptionID)
		r.log.Infow("job cancelled", "subscription_id", subscriptionID)
	}
}

// Reconcile aligns registry state with the persisted active-subscription set:
// missing jobs are registered, orphaned jobs are cancelled. Called once at
// startup; a restart recomputes upcoming boundaries, boundaries that passed
// while the process was down are skipped, not backfilled.
func (r *Registry) Reconcile(active []*models.Subscription) {
	activeByID := lo.KeyBy(active, func(s *models.Subscription) string { return s.ID })

	r.mu.Lock()
	orphans := lo.Filter(lo.Keys(r.jobs), func(id string, _ int) bool {
		_, ok := activeByID[id]
		return !ok
	})
	for _, id := range orphans {
		delete(r.jobs, id)
	}
	r.mu.Unlock()

	registered := 0
	for _, sub := range active {
		switch err := r.Register(sub); {
		case err == nil:
			registered++
		case errors.Is(err, ErrAlreadyScheduled):
			// already live, nothing to do
		default:
			r.log.Errorw("reconcile: register failed", "subscription_id", sub.ID, "err", err)
		}
	}
	r.log.Infow("reconcile completed", "active", len(active), "registered", registered, "orphans_removed", len(orphans))
}

// DueJobs returns copies of all jobs with NextFireAt <= now, ordered by
// NextFireAt then SubscriptionID for a deterministic firing order.
func (r *Registry) DueJobs(now time.Time) []ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []ScheduledJob
	for _, job := range r.jobs {
		if !job.NextFireAt.After(now) {
			due = append(due, *job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextFireAt.Equal(due[j].NextFireAt) {
			return due[i].NextFireAt.Before(due[j].NextFireAt)
		}
		return due[i].SubscriptionID < due[j].SubscriptionID
	})
	return due
}

// Advance re-arms a job after a firing, anchored at the previous fire time so
// periodicity never drifts. Boundaries already in the past are skipped. The
// write is discarded when generation no longer matches the caller's view:
// a newer reschedule or cancel wins over the stale trigger.
func (r *Registry) Advance(subscriptionID string, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[subscriptionID]
	if !ok || job.Generation != generation {
		return false
	}

	step := time.Duration(job.IntervalSeconds) * time.Second
	now := r.now()
	next := job.NextFireAt.Add(step)
	for !next.After(now) {
		next = next.Add(step)
	}

	job.NextFireAt = next
	job.Generation++
	return true
}

// Len reports the number of live jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// job returns a copy of the job for tests and introspection.
func (r *Registry) job(subscriptionID string) (ScheduledJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[subscriptionID]
	if !ok {
		return ScheduledJob{}, false
	}
	return *job, true
}
