package scheduler

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/pkg/config"
)

func newRegistry(cfg *config.Config, log *zap.SugaredLogger) (*Registry, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return NewRegistry(loc, log), nil
}

func runRuntime(lc fx.Lifecycle, rt *Runtime) {
	lc.Append(fx.Hook{
		OnStart: rt.Start,
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return rt.Stop(stopCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newRegistry),
	fx.Provide(NewRuntime),
	fx.Invoke(runRuntime),
)
