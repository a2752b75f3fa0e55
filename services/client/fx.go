package client

import "go.uber.org/fx"

var Module = fx.Module("client.service",
	fx.Provide(NewService),
)

var HTTPModule = fx.Module("client.http",
	Module,
	fx.Invoke(RegisterRoutes),
)
