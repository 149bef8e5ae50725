package notifier

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/lin4lins/WeatherInBox-API/internal/app/scheduler"
	"github.com/lin4lins/WeatherInBox-API/internal/models"
	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/metrics"
	"github.com/lin4lins/WeatherInBox-API/pkg/retry"
	"github.com/lin4lins/WeatherInBox-API/pkg/types"
)

// SubscriptionResolver loads a subscription with its user and city. A nil
// subscription with a nil error means the row no longer exists.
type SubscriptionResolver interface {
	SubscriptionByID(ctx context.Context, id string) (*models.Subscription, error)
}

// SnapshotProvider yields a weather snapshot for a city, possibly a reused
// fresh one.
type SnapshotProvider interface {
	SnapshotForCity(ctx context.Context, city *models.City) (*models.WeatherSnapshot, bool, error)
}

// JobRegistry is the slice of the schedule registry the dispatcher needs:
// dropping jobs whose subscription turned out stale mid-flight.
type JobRegistry interface {
	Cancel(subscriptionID string)
}

// DeliveryRecorder persists per-channel firing outcomes for audit.
type DeliveryRecorder interface {
	Record(ctx context.Context, entry *models.DeliveryLog)
}

// Dispatcher executes one firing per due job: resolve the subscription, get a
// snapshot, then deliver on every applicable channel. Channels fail
// independently; every failure is contained here and never reaches the
// scheduling loop.
type Dispatcher struct {
	subs      SubscriptionResolver
	snapshots SnapshotProvider
	jobs      JobRegistry
	recorder  DeliveryRecorder

	email        EmailSender
	emailEnabled bool
	emailRetry   retry.Policy
	webhook      WebhookSender

	collector *metrics.Collector
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewDispatcher(
	subs SubscriptionResolver,
	snapshots SnapshotProvider,
	jobs JobRegistry,
	recorder DeliveryRecorder,
	email EmailSender,
	webhook WebhookSender,
	cfg *cfgpkg.Config,
	collector *metrics.Collector,
	log *zap.SugaredLogger,
) *Dispatcher {
	return &Dispatcher{
		subs:         subs,
		snapshots:    snapshots,
		jobs:         jobs,
		recorder:     recorder,
		email:        email,
		emailEnabled: cfg.Email.Enabled,
		emailRetry: retry.Policy{
			MaxAttempts: cfg.Email.RetryCount,
			Delay:       cfg.Email.RetryDelay,
		},
		webhook:   webhook,
		collector: collector,
		log:       log,
		now:       time.Now,
	}
}

// Dispatch handles one due job. It always completes: a stuck channel is
// bounded by ctx, an exhausted one is logged and recorded, and the job's
// next occurrence is owned by the scheduler loop regardless of outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, job scheduler.ScheduledJob) {
	log := d.log.With("subscription_id", job.SubscriptionID, "generation", job.Generation)

	sub, err := d.subs.SubscriptionByID(ctx, job.SubscriptionID)
	if err != nil {
		log.Errorw("failed to resolve subscription", "err", err)
		d.collector.Firings.WithLabelValues("resolve_failed").Inc()
		return
	}
	if sub == nil || !sub.IsActive {
		// The job went stale between selection and dispatch. Drop it; the
		// in-flight firing is skipped, not delivered.
		log.Infow("subscription inactive or gone, dropping job")
		d.jobs.Cancel(job.SubscriptionID)
		d.collector.Firings.WithLabelValues("stale").Inc()
		return
	}

	snap, reused, err := d.snapshots.SnapshotForCity(ctx, &sub.City)
	if err != nil {
		// No snapshot means nothing to deliver this cycle. The next natural
		// boundary is the retry.
		log.Errorw("weather fetch failed, skipping firing", "err", err, "city_id", sub.CityID)
		d.collector.Firings.WithLabelValues("fetch_failed").Inc()
		return
	}

	channels := channelsFor(&sub.User)
	if !d.emailEnabled {
		channels = lo.Without(channels, types.DeliveryChannelEmail)
	}
	if len(channels) == 0 {
		log.Warnw("subscription has no delivery channels configured")
		d.collector.Firings.WithLabelValues("no_channels").Inc()
		return
	}

	delivered := 0
	for _, ch := range channels {
		var sendErr error
		switch ch {
		case types.DeliveryChannelEmail:
			sendErr = d.emailRetry.Do(ctx, func() error {
				return d.email.Send(sub.User.Email, emailSubject(&sub.City), renderEmail(snap))
			})
		case types.DeliveryChannelWebhook:
			sendErr = d.webhook.Send(ctx, sub.User.WebhookURL, payloadFromSnapshot(snap))
		}

		outcome := types.DeliveryOutcomeSent
		if sendErr != nil {
			outcome = types.DeliveryOutcomeFailed
			log.Errorw("delivery failed", "channel", ch, "err", sendErr)
		} else {
			delivered++
		}
		d.collector.Deliveries.WithLabelValues(string(ch), string(outcome)).Inc()
		d.record(ctx, sub, job, ch, outcome, sendErr, snap, reused)
	}

	switch {
	case delivered == len(channels):
		d.collector.Firings.WithLabelValues("delivered").Inc()
	case delivered > 0:
		d.collector.Firings.WithLabelValues("partial").Inc()
	default:
		d.collector.Firings.WithLabelValues("failed").Inc()
	}
	log.Infow("firing handled", "channels", len(channels), "delivered", delivered, "snapshot_reused", reused)
}

func (d *Dispatcher) record(ctx context.Context, sub *models.Subscription, job scheduler.ScheduledJob,
	ch types.DeliveryChannel, outcome types.DeliveryOutcome, sendErr error, snap *models.WeatherSnapshot, reused bool) {

	entry := &models.DeliveryLog{
		SubscriptionID: sub.ID,
		Channel:        ch,
		Outcome:        outcome,
		Generation:     job.Generation,
		FiredAt:        job.NextFireAt,
		Extra: datatypes.JSONMap{
			"snapshot_id":     snap.ID,
			"snapshot_reused": reused,
		},
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	d.recorder.Record(ctx, entry)
}

// channelsFor computes the applicable channel set once per firing. Email
// applies when the user opted in and has an address; webhook when a URL is
// configured.
func channelsFor(user *models.User) []types.DeliveryChannel {
	candidates := []types.DeliveryChannel{types.DeliveryChannelEmail, types.DeliveryChannelWebhook}
	return lo.Filter(candidates, func(ch types.DeliveryChannel, _ int) bool {
		switch ch {
		case types.DeliveryChannelEmail:
			return user.ReceiveEmails && user.Email != ""
		case types.DeliveryChannelWebhook:
			return user.WebhookURL != ""
		}
		return false
	})
}
