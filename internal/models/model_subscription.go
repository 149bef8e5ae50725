package models

import "time"

// Allowed values for Subscription.TimesPerDay. Each evenly divides a day into
// whole-second slices anchored at midnight.
var AllowedTimesPerDay = []int{1, 2, 4, 6, 12}

// Subscription links one user to one city at a chosen daily notification
// frequency. UserID and CityID are immutable after creation; changing the
// city means deleting the subscription and creating a new one.
type Subscription struct {
	ID          string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID      string `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_sub_user_city" json:"user_id"`
	CityID      string `gorm:"column:city_id;type:uuid;not null;uniqueIndex:idx_sub_user_city" json:"city_id"`
	TimesPerDay int    `gorm:"column:times_per_day;not null;default:1" json:"times_per_day"`
	IsActive    bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	City City `gorm:"foreignKey:CityID" json:"city,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// ValidTimesPerDay reports whether n is one of the enumerated frequencies.
func ValidTimesPerDay(n int) bool {
	for _, v := range AllowedTimesPerDay {
		if v == n {
			return true
		}
	}
	return false
}
