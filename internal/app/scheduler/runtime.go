package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
	"github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/metrics"
)

// Dispatcher handles one due firing. Implementations must contain their own
// failures; a dispatch error must never reach the scheduling loop.
type Dispatcher interface {
	Dispatch(ctx context.Context, job ScheduledJob)
}

// SubscriptionSource supplies the persisted active-subscription set for
// startup reconciliation.
type SubscriptionSource interface {
	ActiveSubscriptions(ctx context.Context) ([]*models.Subscription, error)
}

// Runtime owns time for the notification core: a short gocron tick polls the
// registry for due jobs, re-arms each one immediately (anchored at the
// previous boundary so periodicity never drifts) and hands the firing to the
// dispatcher on a bounded worker pool, decoupled from the loop.
type Runtime struct {
	registry   *Registry
	dispatcher Dispatcher
	source     SubscriptionSource

	cron            *gocron.Scheduler
	pollInterval    time.Duration
	dispatchTimeout time.Duration
	sem             chan struct{}
	wg              sync.WaitGroup

	collector *metrics.Collector
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewRuntime(reg *Registry, disp Dispatcher, src SubscriptionSource, cfg *config.Config, collector *metrics.Collector, log *zap.SugaredLogger) *Runtime {
	workers := cfg.Scheduler.MaxWorkers
	if workers <= 0 {
		workers = 16
	}
	poll := cfg.Scheduler.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	dispatchTimeout := cfg.Scheduler.DispatchTimeout
	if dispatchTimeout <= 0 {
		dispatchTimeout = 30 * time.Second
	}

	return &Runtime{
		registry:        reg,
		dispatcher:      disp,
		source:          src,
		cron:            gocron.NewScheduler(time.UTC),
		pollInterval:    poll,
		dispatchTimeout: dispatchTimeout,
		sem:             make(chan struct{}, workers),
		collector:       collector,
		log:             log,
		now:             time.Now,
	}
}

// Start reconciles the registry against persisted subscriptions and begins
// polling. Reconcile-on-startup is the backstop for any divergence caused by
// a crash between a CRUD write and its registry call.
func (r *Runtime) Start(ctx context.Context) error {
	subs, err := r.source.ActiveSubscriptions(ctx)
	if err != nil {
		return err
	}
	r.registry.Reconcile(subs)
	r.collector.ScheduledJobs.Set(float64(r.registry.Len()))

	if _, err := r.cron.Every(r.pollInterval).Do(r.tick); err != nil {
		return err
	}
	r.cron.StartAsync()
	r.log.Infow("scheduler runtime started", "poll_interval", r.pollInterval, "jobs", r.registry.Len())
	return nil
}

// Stop halts polling and waits for in-flight dispatches, bounded by ctx.
func (r *Runtime) Stop(ctx context.Context) error {
	r.cron.Stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.log.Infow("scheduler runtime stopped")
		return nil
	case <-ctx.Done():
		r.log.Warnw("scheduler runtime stop timed out with dispatches in flight")
		return ctx.Err()
	}
}

func (r *Runtime) tick() {
	now := r.now()
	for _, job := range r.registry.DueJobs(now) {
		// Re-arm first. A stale generation here means the job changed between
		// DueJobs and now; the newer state owns the next firing.
		if !r.registry.Advance(job.SubscriptionID, job.Generation) {
			r.collector.Firings.WithLabelValues("stale").Inc()
			continue
		}

		r.wg.Add(1)
		go func(job ScheduledJob) {
			defer r.wg.Done()
			r.sem <- struct{}{}
			defer func() { <-r.sem }()

			defer func() {
				if rec := recover(); rec != nil {
					r.collector.Firings.WithLabelValues("panic").Inc()
					r.log.Errorw("dispatch panicked", "subscription_id", job.SubscriptionID, "panic", rec)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), r.dispatchTimeout)
			defer cancel()
			r.dispatcher.Dispatch(ctx, job)
		}(job)
	}
	r.collector.ScheduledJobs.Set(float64(r.registry.Len()))
}
