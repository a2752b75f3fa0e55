package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/db"
	"github.com/SahilSagvekar/my-app-sub003/pkg/gen"
	"github.com/SahilSagvekar/my-app-sub003/pkg/httpapi"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/otelcol"
	"github.com/SahilSagvekar/my-app-sub003/pkg/redis"
	"github.com/SahilSagvekar/my-app-sub003/pkg/server"
	"github.com/SahilSagvekar/my-app-sub003/pkg/storage"
	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/provisioning"
	"github.com/SahilSagvekar/my-app-sub003/services/recurring"
	"github.com/SahilSagvekar/my-app-sub003/services/schema"
	"github.com/SahilSagvekar/my-app-sub003/services/task"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		gen.Module,
		redis.Module,
		storage.Module,
		queue.Client,
		queue.Server,
		schema.Module,

		httpapi.Module,
		client.HTTPModule,
		deliverable.HTTPModule,
		task.HTTPModule,
		provisioning.Module,
		provisioning.WorkerModule,
		provisioning.HTTPModule,
		recurring.Module,
		recurring.HTTPModule,
		recurring.WorkerModule,
		recurring.SchedulerModule,

		server.ProvideHTTPServer,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})
