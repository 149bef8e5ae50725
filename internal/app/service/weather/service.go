package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/logctx"
	"github.com/lin4lins/WeatherInBox-API/pkg/metrics"
	"github.com/lin4lins/WeatherInBox-API/pkg/retry"
	"github.com/lin4lins/WeatherInBox-API/pkg/tool"
)

// Service produces WeatherSnapshot rows for cities. A snapshot created within
// the freshness window is reused instead of calling upstream again; reuse is
// an explicit, observable outcome (logged, counted, flagged to the caller).
type Service struct {
	db        *gorm.DB
	fetcher   Fetcher
	freshness time.Duration
	fetchTry  retry.Policy
	collector *metrics.Collector
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewService(db *gorm.DB, fetcher Fetcher, cfg *cfgpkg.Config, collector *metrics.Collector, log *zap.SugaredLogger) *Service {
	freshness := cfg.Weather.FreshnessWindow
	if freshness <= 0 {
		freshness = time.Hour
	}
	return &Service{
		db:        db,
		fetcher:   fetcher,
		freshness: freshness,
		fetchTry: retry.Policy{
			MaxAttempts: cfg.Weather.FetchRetries,
			Delay:       cfg.Weather.FetchRetryDelay,
			Retryable:   func(err error) bool { return errors.Is(err, ErrUpstreamUnavailable) },
		},
		collector: collector,
		log:       log,
		now:       time.Now,
	}
}

// SnapshotForCity returns a snapshot for the city, reusing the most recent
// persisted one inside the freshness window. The second return value reports
// whether the snapshot was reused. ErrNotFound is surfaced without retries;
// ErrUpstreamUnavailable only after the retry budget is exhausted.
func (s *Service) SnapshotForCity(ctx context.Context, city *models.City) (*models.WeatherSnapshot, bool, error) {
	cutoff := s.now().Add(-s.freshness)

	var cached models.WeatherSnapshot
	err := s.db.WithContext(ctx).
		Where("city_id = ? AND created_at >= ?", city.ID, cutoff).
		Order("created_at desc").
		First(&cached).Error
	switch {
	case err == nil:
		logctx.FromCtx(ctx, s.log).Infow("weather snapshot reused",
			"city_id", city.ID, "snapshot_id", cached.ID, "age", s.now().Sub(cached.CreatedAt))
		s.collector.SnapshotFetches.WithLabelValues("cache").Inc()
		cached.City = *city
		return &cached, true, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("failed to query cached snapshot: %w", err)
	}

	var reading *Reading
	err = s.fetchTry.Do(ctx, func() error {
		var fetchErr error
		reading, fetchErr = s.fetcher.Fetch(ctx, city.Latitude, city.Longitude)
		return fetchErr
	})
	if err != nil {
		s.collector.SnapshotFetches.WithLabelValues("error").Inc()
		return nil, false, err
	}
	s.collector.SnapshotFetches.WithLabelValues("upstream").Inc()

	snapshot := &models.WeatherSnapshot{
		ID:                tool.GenerateUUIDV7(),
		CityID:            city.ID,
		Temperature:       reading.Temperature,
		FeelsLike:         reading.FeelsLike,
		WindSpeed:         reading.WindSpeed,
		Rain1h:            reading.Rain1h,
		Snow1h:            reading.Snow1h,
		Pressure:          reading.Pressure,
		Humidity:          reading.Humidity,
		Visibility:        reading.Visibility,
		Cloudiness:        reading.Cloudiness,
		Status:            reading.Status,
		StatusDescription: reading.StatusDescription,
	}
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, false, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	snapshot.City = *city
	return snapshot, false, nil
}

// LatestForCity returns the most recent snapshot for a city regardless of age.
func (s *Service) LatestForCity(ctx context.Context, cityID string) (*models.WeatherSnapshot, error) {
	var snap models.WeatherSnapshot
	err := s.db.WithContext(ctx).
		Preload("City").
		Where("city_id = ?", cityID).
		Order("created_at desc").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no snapshot for city %s", ErrNotFound, cityID)
		}
		return nil, err
	}
	return &snap, nil
}
