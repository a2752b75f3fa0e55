package recurring

import "go.uber.org/fx"

var Module = fx.Module("recurring.service",
	fx.Provide(NewService),
)

var HTTPModule = fx.Module("recurring.http",
	fx.Invoke(RegisterRoutes),
)

var WorkerModule = fx.Module("recurring.worker",
	fx.Invoke(RegisterHandlers),
)

var SchedulerModule = fx.Module("recurring.scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(registerScheduler),
)
