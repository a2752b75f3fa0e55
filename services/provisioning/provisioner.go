package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/repository"
	"github.com/SahilSagvekar/my-app-sub003/pkg/storage"
	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const provisionConcurrency = 4

type Provisioner struct {
	storage  storage.Storage
	enqueuer queue.Enqueuer
	repo     repository.Repository[task.Task]
}

type Params struct {
	fx.In
	DB       *gorm.DB
	Storage  storage.Storage
	Enqueuer queue.Enqueuer
}

func NewProvisioner(p Params) *Provisioner {
	return &Provisioner{
		storage:  p.Storage,
		enqueuer: p.Enqueuer,
		repo:     repository.ProvideStore[task.Task](p.DB),
	}
}

// Provision creates the task's output folder. On failure the task is flagged
// failed and a retry job is queued; the task row itself is kept.
func (p *Provisioner) Provision(ctx context.Context, t *task.Task, root string) error {
	folder, err := p.storage.ProvisionOutputFolder(ctx, root, t.Title)
	if err != nil {
		p.markFailed(ctx, t, root, err)
		return err
	}
	return p.markProvisioned(ctx, t, folder)
}

// ProvisionAll provisions folders for a batch of tasks in parallel and returns
// how many failed.
func (p *Provisioner) ProvisionAll(ctx context.Context, tasks []*task.Task, root string) int {
	var failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(provisionConcurrency)
	for _, t := range tasks {
		g.Go(func() error {
			if err := p.Provision(gctx, t, root); err != nil {
				atomic.AddInt64(&failed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed)
}

func (p *Provisioner) markProvisioned(ctx context.Context, t *task.Task, folder string) error {
	err := p.repo.Update(ctx, t.ID, map[string]any{
		"folder_status":    task.FolderProvisioned,
		"output_folder_id": folder,
	})
	if err != nil {
		logger.FromContext(ctx).Error("failed to record output folder", zap.String("task_id", t.ID), zap.Error(err))
		return err
	}
	t.FolderStatus = task.FolderProvisioned
	t.OutputFolderID = folder
	return nil
}

func (p *Provisioner) markFailed(ctx context.Context, t *task.Task, root string, cause error) {
	zapLog := logger.FromContext(ctx).With(zap.String("task_id", t.ID), zap.String("title", t.Title))
	zapLog.Error("failed to provision output folder", zap.Error(cause))

	if err := p.repo.Update(ctx, t.ID, map[string]any{"folder_status": task.FolderFailed}); err != nil {
		zapLog.Error("failed to flag folder status", zap.Error(err))
	}
	t.FolderStatus = task.FolderFailed

	if p.enqueuer == nil {
		return
	}
	job := NewProvisionFolderTask(FolderPayload{TaskID: t.ID, Root: root, Title: t.Title})
	if _, err := p.enqueuer.Enqueue(ctx, job); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return
		}
		zapLog.Error("failed to enqueue folder retry", zap.Error(err))
		return
	}
	zapLog.Info("enqueued folder retry", zap.String("task_type", job.Type()))
}

// HandleProvisionFolder is the asynq handler for folder retries. Returning an
// error lets asynq retry with backoff.
func (p *Provisioner) HandleProvisionFolder(ctx context.Context, job *asynq.Task) error {
	var payload FolderPayload
	if err := json.Unmarshal(job.Payload(), &payload); err != nil {
		zap.L().Error("invalid provision folder payload", zap.Error(err))
		return errors.Join(err, asynq.SkipRetry)
	}

	zapLog := zap.L().With(zap.String("task_id", payload.TaskID))

	t, err := p.repo.FindOne(ctx, &task.Task{ID: payload.TaskID})
	if err != nil {
		return err
	}
	if t == nil {
		zapLog.Warn("task gone, dropping folder retry")
		return nil
	}
	if t.FolderStatus == task.FolderProvisioned {
		return nil
	}

	folder, err := p.storage.ProvisionOutputFolder(ctx, payload.Root, t.Title)
	if err != nil {
		zapLog.Warn("folder retry failed", zap.Error(err))
		return err
	}
	if err := p.markProvisioned(ctx, t, folder); err != nil {
		return err
	}

	zapLog.Info("output folder provisioned on retry", zap.String("folder", folder))
	return nil
}

func RegisterHandlers(mux *asynq.ServeMux, p *Provisioner) {
	mux.HandleFunc(taskname.StorageProvisionFolder, p.HandleProvisionFolder)
}
