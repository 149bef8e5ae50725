package models

import "time"

// City is a named geographic point. Coordinates are resolved once via
// geocoding when the row is created and never recomputed afterwards.
type City struct {
	ID          string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Name        string  `gorm:"column:name;type:varchar(255);not null;uniqueIndex:idx_city_name_country" json:"name"`
	CountryName string  `gorm:"column:country_name;type:varchar(255);not null;uniqueIndex:idx_city_name_country" json:"country_name"`
	Latitude    float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude   float64 `gorm:"column:longitude;not null" json:"longitude"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (City) TableName() string {
	return "city"
}
