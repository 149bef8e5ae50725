package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/lin4lins/WeatherInBox-API/pkg/types"
)

// DeliveryLog records the per-channel outcome of one firing. One row per
// attempted channel; failures are counted here rather than surfaced to the
// subscriber.
type DeliveryLog struct {
	ID             string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string                `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	Channel        types.DeliveryChannel `gorm:"column:channel;type:varchar(32);not null" json:"channel"`
	Outcome        types.DeliveryOutcome `gorm:"column:outcome;type:varchar(32);not null" json:"outcome"`
	Error          string                `gorm:"column:error;type:varchar(1024)" json:"error,omitempty"`
	Generation     uint64                `gorm:"column:generation;not null" json:"generation"`
	FiredAt        time.Time             `gorm:"column:fired_at;not null" json:"fired_at"`
	// Extra stores additional JSON data (for example: snapshot id, HTTP status).
	Extra datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`

	CreatedAt time.Time `json:"created_at"`
}

func (DeliveryLog) TableName() string {
	return "delivery_log"
}
