package notifier

import (
	"time"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
)

// WebhookPayload is the wire format POSTed to a subscriber's webhook URL.
// Field names mirror the snapshot row so consumers can treat the feed as an
// append-only weather log.
type WebhookPayload struct {
	Temperature       float64     `json:"temperature"`
	FeelsLike         float64     `json:"feels_like"`
	WindSpeed         float64     `json:"wind_speed"`
	Rain1h            *float64    `json:"rain_1h"`
	Snow1h            *float64    `json:"snow_1h"`
	Pressure          int         `json:"pressure"`
	Humidity          int         `json:"humidity"`
	Visibility        int         `json:"visibility"`
	Cloudiness        int         `json:"cloudiness"`
	Status            string      `json:"status"`
	StatusDescription string      `json:"status_description"`
	CreatedAt         time.Time   `json:"created_at"`
	City              CityPayload `json:"city"`
}

type CityPayload struct {
	Name        string  `json:"name"`
	CountryName string  `json:"country_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func payloadFromSnapshot(snap *models.WeatherSnapshot) WebhookPayload {
	return WebhookPayload{
		Temperature:       snap.Temperature,
		FeelsLike:         snap.FeelsLike,
		WindSpeed:         snap.WindSpeed,
		Rain1h:            snap.Rain1h,
		Snow1h:            snap.Snow1h,
		Pressure:          snap.Pressure,
		Humidity:          snap.Humidity,
		Visibility:        snap.Visibility,
		Cloudiness:        snap.Cloudiness,
		Status:            snap.Status,
		StatusDescription: snap.StatusDescription,
		CreatedAt:         snap.CreatedAt,
		City: CityPayload{
			Name:        snap.City.Name,
			CountryName: snap.City.CountryName,
			Latitude:    snap.City.Latitude,
			Longitude:   snap.City.Longitude,
		},
	}
}
