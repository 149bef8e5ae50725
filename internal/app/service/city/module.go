package city

import "go.uber.org/fx"

// Module exposes the city service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
