package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/db"
	"github.com/SahilSagvekar/my-app-sub003/pkg/gen"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/otelcol"
	"github.com/SahilSagvekar/my-app-sub003/pkg/redis"
	"github.com/SahilSagvekar/my-app-sub003/pkg/storage"
	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"
	"github.com/SahilSagvekar/my-app-sub003/services/provisioning"
	"github.com/SahilSagvekar/my-app-sub003/services/recurring"
	"github.com/SahilSagvekar/my-app-sub003/services/schema"
)

func main() {
	var req recurring.BackfillRequest
	flag.IntVar(&req.Year, "year", 0, "year to backfill (default: current)")
	flag.IntVar(&req.Month, "month", 0, "month to backfill, 1-12 (default: current)")
	flag.StringVar(&req.ClientID, "client", "", "only backfill this client")
	flag.StringVar(&req.DeliverableID, "deliverable", "", "only backfill this deliverable")
	flag.BoolVar(&req.DryRun, "dry-run", false, "report what would be created without writing")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall timeout")
	flag.Parse()

	if err := run(req, *timeout); err != nil {
		zap.L().Error("backfill failed", zap.Error(err))
		log.Fatalf("backfill failed: %v", err)
	}
}

func run(req recurring.BackfillRequest, timeout time.Duration) error {
	var svc *recurring.Service
	opts := []fx.Option{
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		gen.Module,
		redis.Module,
		storage.Module,
		queue.Client,
		schema.Module,
		provisioning.Module,
		recurring.Module,
		fx.Populate(&svc),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		return fmt.Errorf("fx validation failed: %w", err)
	}

	app := fx.New(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer stopCancel()
		if err := app.Stop(stopCtx); err != nil {
			zap.L().Warn("shutdown failed", zap.Error(err))
		}
	}()

	result, err := svc.Backfill(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
