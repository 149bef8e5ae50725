package weather

import "go.uber.org/fx"

// Module exposes the weather fetching stack via Fx.
var Module = fx.Options(
	fx.Provide(func(c *OpenWeatherClient) Fetcher { return c }),
	fx.Provide(NewOpenWeatherClient),
	fx.Provide(NewGeocoder),
	fx.Provide(NewService),
)
