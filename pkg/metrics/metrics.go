package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var httpDurBuckets = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000, 3000, 5000, 10000, 15000,
}

// Collector bundles the prometheus instruments of the service: HTTP access
// plus the scheduler/dispatcher counters defined by the firing pipeline.
type Collector struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	Firings         *prometheus.CounterVec
	Deliveries      *prometheus.CounterVec
	SnapshotFetches *prometheus.CounterVec
	ScheduledJobs   prometheus.Gauge
}

func New() *Collector {
	return &Collector{
		reqCnt: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_req_total",
			Help: "How many HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "url"}),
		reqDur: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_req_dur_ms",
			Help:    "The HTTP request latencies in milliseconds.",
			Buckets: httpDurBuckets,
		}, []string{"code", "method", "url"}),
		Firings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_firings_total",
			Help: "Scheduled firings processed, partitioned by outcome.",
		}, []string{"outcome"}),
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_deliveries_total",
			Help: "Per-channel delivery attempts, partitioned by channel and outcome.",
		}, []string{"channel", "outcome"}),
		SnapshotFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_snapshot_fetches_total",
			Help: "Weather snapshot resolutions, partitioned by source (upstream or cache).",
		}, []string{"source"}),
		ScheduledJobs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_jobs",
			Help: "Number of live scheduled jobs in the registry.",
		}),
	}
}

// GinMiddleware records request count and latency per route template.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(g *gin.Context) {
		start := time.Now()
		g.Next()

		url := g.FullPath()
		if url == "" {
			url = g.Request.URL.Path
		}
		status := strconv.Itoa(g.Writer.Status())
		elapsed := float64(time.Since(start).Milliseconds())

		c.reqCnt.WithLabelValues(status, g.Request.Method, url).Inc()
		c.reqDur.WithLabelValues(status, g.Request.Method, url).Observe(elapsed)
	}
}

// Serve exposes /metrics on its own listener so scrapes stay out of the API
// access log. No-op when addr is empty.
func Serve(lc fx.Lifecycle, log *zap.SugaredLogger, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("metrics started", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("metrics server error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
)
