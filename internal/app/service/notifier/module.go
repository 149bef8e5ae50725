package notifier

import (
	"go.uber.org/fx"

	"github.com/lin4lins/WeatherInBox-API/internal/app/scheduler"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/weather"
)

// Module exposes the notification dispatch stack via Fx.
var Module = fx.Options(
	fx.Provide(NewSMTPSender),
	fx.Provide(func(s *SMTPSender) EmailSender { return s }),
	fx.Provide(NewHTTPWebhookSender),
	fx.Provide(func(s *HTTPWebhookSender) WebhookSender { return s }),
	fx.Provide(NewGormRecorder),
	fx.Provide(func(r *GormRecorder) DeliveryRecorder { return r }),
	fx.Provide(func(r *scheduler.Registry) JobRegistry { return r }),
	fx.Provide(func(s *weather.Service) SnapshotProvider { return s }),
	fx.Provide(NewDispatcher),
	fx.Provide(func(d *Dispatcher) scheduler.Dispatcher { return d }),
)
