package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
	"github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/metrics"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []ScheduledJob
	fn   func(job ScheduledJob)
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job ScheduledJob) {
	d.mu.Lock()
	d.jobs = append(d.jobs, job)
	d.mu.Unlock()
	if d.fn != nil {
		d.fn(job)
	}
}

func (d *recordingDispatcher) dispatched() []ScheduledJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ScheduledJob(nil), d.jobs...)
}

type staticSource struct{ subs []*models.Subscription }

func (s staticSource) ActiveSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	return s.subs, nil
}

var testCollector = metrics.New()

func newTestRuntime(t *testing.T, reg *Registry, disp Dispatcher, src SubscriptionSource) *Runtime {
	t.Helper()
	cfg := &config.Config{}
	cfg.Scheduler.MaxWorkers = 4
	cfg.Scheduler.PollInterval = time.Second
	cfg.Scheduler.DispatchTimeout = 5 * time.Second
	return NewRuntime(reg, disp, src, cfg, testCollector, zap.NewNop().Sugar())
}

func TestRuntime_TickDispatchesAndReArms(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, midnight.Add(9*time.Hour))
	require.NoError(t, reg.Register(activeSub("s1", 6))) // fires at 12:00

	disp := &recordingDispatcher{}
	rt := newTestRuntime(t, reg, disp, staticSource{})

	// Before the boundary nothing fires.
	rt.now = func() time.Time { return midnight.Add(11 * time.Hour) }
	reg.now = rt.now
	rt.tick()
	rt.wg.Wait()
	require.Empty(t, disp.dispatched())

	// At the boundary the job fires once and is re-armed to the next slice.
	rt.now = func() time.Time { return midnight.Add(12*time.Hour + time.Second) }
	reg.now = rt.now
	rt.tick()
	rt.wg.Wait()

	got := disp.dispatched()
	require.Len(t, got, 1)
	require.Equal(t, "s1", got[0].SubscriptionID)
	require.Equal(t, midnight.Add(12*time.Hour), got[0].NextFireAt)

	job, ok := reg.job("s1")
	require.True(t, ok)
	require.Equal(t, midnight.Add(16*time.Hour), job.NextFireAt)

	// The same boundary never fires twice.
	rt.tick()
	rt.wg.Wait()
	require.Len(t, disp.dispatched(), 1)
}

func TestRuntime_SlowDispatchDoesNotBlockOtherJobs(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, midnight.Add(1*time.Hour))
	require.NoError(t, reg.Register(activeSub("slow", 12)))
	require.NoError(t, reg.Register(activeSub("fast", 12)))

	release := make(chan struct{})
	disp := &recordingDispatcher{fn: func(job ScheduledJob) {
		if job.SubscriptionID == "slow" {
			<-release
		}
	}}
	rt := newTestRuntime(t, reg, disp, staticSource{})

	rt.now = func() time.Time { return midnight.Add(2*time.Hour + time.Second) }
	reg.now = rt.now
	rt.tick()

	// Both jobs were re-armed synchronously even though "slow" is stuck.
	for _, id := range []string{"slow", "fast"} {
		job, ok := reg.job(id)
		require.True(t, ok, id)
		require.Equal(t, midnight.Add(4*time.Hour), job.NextFireAt, id)
	}

	close(release)
	rt.wg.Wait()
	require.Len(t, disp.dispatched(), 2)
}

func TestRuntime_StartReconcilesFromSource(t *testing.T) {
	reg := newTestRegistry(t, time.Date(2023, 4, 12, 9, 0, 0, 0, time.UTC))
	src := staticSource{subs: []*models.Subscription{activeSub("s1", 2), activeSub("s2", 4)}}
	rt := newTestRuntime(t, reg, &recordingDispatcher{}, src)

	require.NoError(t, rt.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.Stop(ctx)
	}()

	require.Equal(t, 2, reg.Len())
}

func TestRuntime_PanickingDispatchDoesNotKillLoop(t *testing.T) {
	midnight := time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC)
	reg := newTestRegistry(t, midnight.Add(1*time.Hour))
	require.NoError(t, reg.Register(activeSub("s1", 12)))

	disp := &recordingDispatcher{fn: func(ScheduledJob) { panic("boom") }}
	rt := newTestRuntime(t, reg, disp, staticSource{})

	rt.now = func() time.Time { return midnight.Add(2*time.Hour + time.Second) }
	reg.now = rt.now
	rt.tick()
	rt.wg.Wait()

	// Job survived and was re-armed.
	job, ok := reg.job("s1")
	require.True(t, ok)
	require.Equal(t, midnight.Add(4*time.Hour), job.NextFireAt)
}
