package models

import "time"

// WeatherSnapshot is an immutable point-in-time weather reading for a city.
// Rows are written once per upstream fetch and kept for audit; a firing may
// reuse the most recent row inside the freshness window instead of calling
// upstream again.
type WeatherSnapshot struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CityID string `gorm:"column:city_id;type:uuid;not null;index" json:"city_id"`

	Temperature       float64  `gorm:"column:temperature;not null" json:"temperature"`
	FeelsLike         float64  `gorm:"column:feels_like;not null" json:"feels_like"`
	WindSpeed         float64  `gorm:"column:wind_speed;not null" json:"wind_speed"`
	Rain1h            *float64 `gorm:"column:rain_1h" json:"rain_1h"`
	Snow1h            *float64 `gorm:"column:snow_1h" json:"snow_1h"`
	Pressure          int      `gorm:"column:pressure;not null" json:"pressure"`
	Humidity          int      `gorm:"column:humidity;not null" json:"humidity"`
	Visibility        int      `gorm:"column:visibility;not null" json:"visibility"`
	Cloudiness        int      `gorm:"column:cloudiness;not null" json:"cloudiness"`
	Status            string   `gorm:"column:status;type:varchar(64)" json:"status"`
	StatusDescription string   `gorm:"column:status_description;type:varchar(255)" json:"status_description"`

	City City `gorm:"foreignKey:CityID" json:"city,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (WeatherSnapshot) TableName() string {
	return "weather_snapshot"
}
