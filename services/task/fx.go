package task

import (
	"go.uber.org/fx"
)

var Module = fx.Module("task.service",
	fx.Provide(
		NewService,
	),
)

var HTTPModule = fx.Module("task.http",
	Module,
	fx.Invoke(RegisterRoutes),
)
