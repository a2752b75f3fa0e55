package deliverable

import "go.uber.org/fx"

var Module = fx.Module("deliverable.service",
	fx.Provide(NewService),
)

var HTTPModule = fx.Module("deliverable.http",
	Module,
	fx.Invoke(RegisterRoutes),
)
