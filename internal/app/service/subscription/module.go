package subscription

import (
	"go.uber.org/fx"

	"github.com/lin4lins/WeatherInBox-API/internal/app/scheduler"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/notifier"
)

// Module exposes the subscription service via Fx, including the scheduler
// and dispatcher views of it.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(func(s *Service) scheduler.SubscriptionSource { return s }),
	fx.Provide(func(s *Service) notifier.SubscriptionResolver { return s }),
)
