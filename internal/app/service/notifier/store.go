package notifier

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lin4lins/WeatherInBox-API/internal/models"
	"github.com/lin4lins/WeatherInBox-API/pkg/tool"
)

// GormRecorder persists delivery log rows. Write failures are logged and
// swallowed: the audit trail must never fail a firing.
type GormRecorder struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewGormRecorder(db *gorm.DB, log *zap.SugaredLogger) *GormRecorder {
	return &GormRecorder{db: db, log: log}
}

func (r *GormRecorder) Record(ctx context.Context, entry *models.DeliveryLog) {
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Errorw("failed to save delivery log", "subscription_id", entry.SubscriptionID, "err", err)
	}
}
