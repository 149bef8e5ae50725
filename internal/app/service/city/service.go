package city

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lin4lins/WeatherInBox-API/internal/app/service/weather"
	"github.com/lin4lins/WeatherInBox-API/internal/models"
	"github.com/lin4lins/WeatherInBox-API/pkg/logctx"
	"github.com/lin4lins/WeatherInBox-API/pkg/tool"
)

var ErrNotFound = errors.New("city: not found")

// Service manages City rows. Coordinates are resolved by the geocoder exactly
// once, when the row is created, and cached forever after.
type Service struct {
	db       *gorm.DB
	geocoder weather.Geocoder
	log      *zap.SugaredLogger
}

func NewService(db *gorm.DB, geocoder weather.Geocoder, log *zap.SugaredLogger) *Service {
	return &Service{db: db, geocoder: geocoder, log: log}
}

// GetOrCreate returns the city with the given name and country, creating it
// (and resolving its coordinates) when missing. A geocoding NotFound fails
// the creation and propagates to the caller.
func (s *Service) GetOrCreate(ctx context.Context, name, countryName string) (*models.City, error) {
	var c models.City
	err := s.db.WithContext(ctx).Where("name = ? AND country_name = ?", name, countryName).First(&c).Error
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lat, lon, err := s.geocoder.Resolve(ctx, name, countryName)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %s, %s: %w", name, countryName, err)
	}

	c = models.City{
		ID:          tool.GenerateUUIDV7(),
		Name:        name,
		CountryName: countryName,
		Latitude:    lat,
		Longitude:   lon,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create city: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("city created", "city_id", c.ID, "name", name, "country", countryName,
		"lat", lat, "lon", lon)
	return &c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.City, error) {
	var c models.City
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Service) List(ctx context.Context) ([]*models.City, error) {
	var cities []*models.City
	if err := s.db.WithContext(ctx).Order("country_name, name").Find(&cities).Error; err != nil {
		return nil, err
	}
	return cities, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.City{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
