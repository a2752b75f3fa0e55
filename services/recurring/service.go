package recurring

import (
	"context"
	"errors"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/redis"
	"github.com/SahilSagvekar/my-app-sub003/pkg/repository"
	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/provisioning"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// minLockTTL keeps a period lock held for the longest a queued job may run.
const minLockTTL = jobTimeout + 5*time.Minute

var tracer = otel.Tracer("github.com/SahilSagvekar/my-app-sub003/services/recurring")

// FolderProvisioner provisions output folders for freshly created tasks and
// reports how many failed.
type FolderProvisioner interface {
	ProvisionAll(ctx context.Context, tasks []*task.Task, root string) int
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	loc      *time.Location
	lockTTL  time.Duration
	locker   redis.Locker
	folders  FolderProvisioner
	enqueuer queue.Enqueuer
	now      func() time.Time

	recurring    repository.Repository[RecurringTask]
	tasks        repository.Repository[task.Task]
	clients      repository.Repository[client.Client]
	deliverables repository.Repository[deliverable.MonthlyDeliverable]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Locker   redis.Locker
	Folders  *provisioning.Provisioner
	Enqueuer queue.Enqueuer
}

func NewService(p ServiceParams) *Service {
	ttl := p.Config.Scheduler.LockTTL
	if ttl < minLockTTL {
		if ttl > 0 {
			zap.L().Warn("[Recurring] lock ttl shorter than job timeout, raising it",
				zap.Duration("configured", ttl), zap.Duration("ttl", minLockTTL))
		}
		ttl = minLockTTL
	}
	return &Service{
		db:       p.DB,
		node:     p.Node,
		loc:      p.Config.Location(),
		lockTTL:  ttl,
		locker:   p.Locker,
		folders:  p.Folders,
		enqueuer: p.Enqueuer,
		now:      time.Now,

		recurring:    repository.ProvideStore[RecurringTask](p.DB),
		tasks:        repository.ProvideStore[task.Task](p.DB),
		clients:      repository.ProvideStore[client.Client](p.DB),
		deliverables: repository.ProvideStore[deliverable.MonthlyDeliverable](p.DB),
	}
}

// targetMonth validates year/month, defaulting both to the current month in
// the configured timezone when year is zero.
func (s *Service) targetMonth(year, month int) (int, time.Month, error) {
	if year == 0 && month == 0 {
		now := s.now().In(s.loc)
		return now.Year(), now.Month(), nil
	}
	if year < 1 || month < 1 || month > 12 {
		return 0, 0, errutil.BadRequest("invalid year or month", nil,
			errutil.WithDetails(errutil.Detail{Field: "month", Message: "year and month must both be set, month in 1..12"}))
	}
	return year, time.Month(month), nil
}

func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}

	unlock, err := s.locker.Lock(ctx, key, s.lockTTL)
	if errors.Is(err, redis.ErrLockHeld) {
		return errutil.Conflict("another run or backfill for this period is in progress", err)
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to acquire lock", zap.String("key", key), zap.Error(err))
		return errutil.ServiceUnavailable("failed to acquire lock", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger.FromContext(ctx).Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}()

	return fn()
}

// templateAssignment returns the assignment of the recurring task's template,
// or an empty assignment when there is none.
func (s *Service) templateAssignment(ctx context.Context, rt *RecurringTask) (task.Assignment, error) {
	if rt == nil || rt.TemplateTaskID == "" {
		return task.Assignment{}, nil
	}
	tmpl, err := s.tasks.FindOne(ctx, &task.Task{ID: rt.TemplateTaskID})
	if err != nil {
		return task.Assignment{}, err
	}
	if tmpl == nil {
		logger.FromContext(ctx).Warn("template task missing", zap.String("recurring_task_id", rt.ID), zap.String("template_task_id", rt.TemplateTaskID))
		return task.Assignment{}, nil
	}
	return tmpl.Assignment(), nil
}

// clientCache memoizes client lookups over one backfill or run.
type clientCache struct {
	repo repository.Repository[client.Client]
	byID map[string]*client.Client
}

func (s *Service) newClientCache() *clientCache {
	return &clientCache{repo: s.clients, byID: make(map[string]*client.Client)}
}

func (c *clientCache) get(ctx context.Context, id string) (*client.Client, error) {
	if cl, ok := c.byID[id]; ok {
		return cl, nil
	}
	cl, err := c.repo.FindOne(ctx, &client.Client{ID: id})
	if err != nil {
		return nil, err
	}
	c.byID[id] = cl
	return cl, nil
}

// provision runs after the creating transaction commits, so folder failures
// never roll back tasks.
func (s *Service) provision(ctx context.Context, out *Outcome, created []*task.Task, c *client.Client) {
	if s.folders == nil || len(created) == 0 {
		return
	}
	out.FolderFailures = s.folders.ProvisionAll(ctx, created, c.StorageRoot())
	if out.FolderFailures > 0 {
		logger.FromContext(ctx).Warn("some output folders failed, retries queued",
			zap.String("deliverable_id", out.DeliverableID),
			zap.Int("failed", out.FolderFailures),
		)
	}
}
