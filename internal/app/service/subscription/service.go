package subscription

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lin4lins/WeatherInBox-API/internal/app/scheduler"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/city"
	"github.com/lin4lins/WeatherInBox-API/internal/models"
	"github.com/lin4lins/WeatherInBox-API/pkg/logctx"
	"github.com/lin4lins/WeatherInBox-API/pkg/tool"
)

var (
	ErrNotFound = errors.New("subscription: not found")
	// ErrAlreadyExists guards the one-subscription-per-(user, city) invariant.
	ErrAlreadyExists = errors.New("subscription: already exists for this user and city")
	// ErrCityImmutable rejects any attempt to move a subscription to another
	// city. Delete and recreate instead.
	ErrCityImmutable      = errors.New("subscription: changing the city is not available")
	ErrInvalidTimesPerDay = errors.New("subscription: times per day must be one of 1, 2, 4, 6, 12")
)

// Service owns Subscription rows and keeps the schedule registry in sync:
// every create, update and delete calls into the registry as part of the same
// logical operation, so registry state only diverges from persisted state in
// the bounded window before startup reconciliation catches a crash.
type Service struct {
	db       *gorm.DB
	cities   *city.Service
	registry *scheduler.Registry
	log      *zap.SugaredLogger
}

func NewService(db *gorm.DB, cities *city.Service, registry *scheduler.Registry, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cities: cities, registry: registry, log: log}
}

type CreateRequest struct {
	UserID      string
	CityName    string
	CountryName string
	TimesPerDay int
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Subscription, error) {
	if !models.ValidTimesPerDay(req.TimesPerDay) {
		return nil, ErrInvalidTimesPerDay
	}

	// Requesting a city that already exists is fine; only new cities hit the
	// geocoder.
	c, err := s.cities.GetOrCreate(ctx, req.CityName, req.CountryName)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:          tool.GenerateUUIDV7(),
		UserID:      req.UserID,
		CityID:      c.ID,
		TimesPerDay: req.TimesPerDay,
		IsActive:    true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND city_id = ?", req.UserID, c.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(sub).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.registry.Register(sub); err != nil && !errors.Is(err, scheduler.ErrAlreadyScheduled) {
		logctx.FromCtx(ctx, s.log).Errorw("failed to register schedule", "subscription_id", sub.ID, "err", err)
	}

	sub.City = *c
	logctx.FromCtx(ctx, s.log).Infow("subscription created",
		"subscription_id", sub.ID, "user_id", req.UserID, "city_id", c.ID, "times_per_day", req.TimesPerDay)
	return sub, nil
}

// Get returns the subscription when it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Preload("City").
		Where("id = ? AND user_id = ?", id, userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).Preload("City").
		Where("user_id = ?", userID).Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

type UpdateRequest struct {
	TimesPerDay *int
	IsActive    *bool
}

// Update mutates the two mutable fields and applies the matching registry
// transition: deactivate cancels the job, reactivate registers one, and a
// frequency change reschedules from the current moment.
func (s *Service) Update(ctx context.Context, userID, id string, req UpdateRequest) (*models.Subscription, error) {
	if req.TimesPerDay != nil && !models.ValidTimesPerDay(*req.TimesPerDay) {
		return nil, ErrInvalidTimesPerDay
	}

	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	wasActive := sub.IsActive
	oldTimesPerDay := sub.TimesPerDay
	if req.TimesPerDay != nil {
		sub.TimesPerDay = *req.TimesPerDay
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	switch {
	case wasActive && !sub.IsActive:
		s.registry.Cancel(sub.ID)
	case !wasActive && sub.IsActive:
		if err := s.registry.Register(sub); err != nil && !errors.Is(err, scheduler.ErrAlreadyScheduled) {
			logctx.FromCtx(ctx, s.log).Errorw("failed to register schedule", "subscription_id", sub.ID, "err", err)
		}
	case sub.IsActive && sub.TimesPerDay != oldTimesPerDay:
		if err := s.registry.Reschedule(sub.ID, sub.TimesPerDay); err != nil {
			if errors.Is(err, scheduler.ErrNotScheduled) {
				// registry missed this subscription somehow; re-register
				err = s.registry.Register(sub)
			}
			if err != nil && !errors.Is(err, scheduler.ErrAlreadyScheduled) {
				logctx.FromCtx(ctx, s.log).Errorw("failed to reschedule", "subscription_id", sub.ID, "err", err)
			}
		}
	}

	return sub, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.registry.Cancel(id)
	return nil
}

// DeleteByUser removes all subscriptions of a user and drops their jobs.
// Called when the user account is deleted.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Subscription{}).Error; err != nil {
		return err
	}
	for _, id := range ids {
		s.registry.Cancel(id)
	}
	return nil
}

// ActiveSubscriptions feeds startup reconciliation in the scheduler runtime.
func (s *Service) ActiveSubscriptions(ctx context.Context) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// SubscriptionByID resolves a subscription with user and city for dispatch.
// A missing row returns (nil, nil): the dispatcher treats that as a stale job.
func (s *Service) SubscriptionByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Preload("User").Preload("City").
		Where("id = ?", id).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
