package recurring

import (
	"context"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler enqueues the monthly run on a cron spec. The run itself happens
// on the asynq worker so several replicas can share one schedule.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	loc      *time.Location
	enqueuer queue.Enqueuer
}

func NewScheduler(cfg *config.Config, enqueuer queue.Enqueuer) *Scheduler {
	loc := cfg.Location()
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		spec:     cfg.Scheduler.Spec,
		loc:      loc,
		enqueuer: enqueuer,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.enqueueRun); err != nil {
		return err
	}
	s.cron.Start()
	zap.L().Info("[Scheduler] started recurring run scheduler", zap.String("spec", s.spec), zap.String("timezone", s.loc.String()))
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	zap.L().Info("[Scheduler] stopped")
}

// Next reports when the run fires next, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) enqueueRun() {
	now := time.Now().In(s.loc)
	req := RunRequest{Year: now.Year(), Month: int(now.Month())}
	period := Period(now.Year(), now.Month())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := s.enqueuer.Enqueue(ctx, NewRunTask(req))
	if err != nil {
		zap.L().Error("[Scheduler] failed to enqueue recurring run", zap.String("period", period), zap.Error(err))
		return
	}
	zap.L().Info("[Scheduler] enqueued recurring run", zap.String("period", period), zap.String("task_id", info.ID))
}

func registerScheduler(lc fx.Lifecycle, cfg *config.Config, s *Scheduler) {
	if !cfg.Scheduler.Enable {
		zap.L().Info("[Scheduler] disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
