package provisioning

import (
	"context"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"go.uber.org/zap"
)

type FolderListing struct {
	TaskID       string            `json:"task_id"`
	Folder       string            `json:"folder"`
	FolderStatus task.FolderStatus `json:"folder_status"`
	Objects      []string          `json:"objects"`
}

func (p *Provisioner) provisionedTask(ctx context.Context, taskID string) (*task.Task, error) {
	if taskID == "" {
		return nil, errutil.BadRequest("task id is required", nil)
	}
	t, err := p.repo.FindOne(ctx, &task.Task{ID: taskID})
	if err != nil {
		return nil, errutil.Internal("failed to load task", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}
	if t.OutputFolderID == "" {
		return nil, errutil.NotFound("task has no output folder", nil)
	}
	return t, nil
}

// ListFolder returns every object key below the task's output folder.
func (p *Provisioner) ListFolder(ctx context.Context, taskID string) (*FolderListing, error) {
	t, err := p.provisionedTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	keys, err := p.storage.List(ctx, t.OutputFolderID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list output folder", zap.String("task_id", t.ID), zap.Error(err))
		return nil, errutil.ServiceUnavailable("object storage unavailable", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return &FolderListing{TaskID: t.ID, Folder: t.OutputFolderID, FolderStatus: t.FolderStatus, Objects: keys}, nil
}

// RemoveFolder deletes the task's output folder and resets its folder status
// to pending.
func (p *Provisioner) RemoveFolder(ctx context.Context, taskID string) error {
	t, err := p.provisionedTask(ctx, taskID)
	if err != nil {
		return err
	}
	zapLog := logger.FromContext(ctx).With(zap.String("task_id", t.ID), zap.String("folder", t.OutputFolderID))

	if err := p.storage.DeleteFolder(ctx, t.OutputFolderID); err != nil {
		zapLog.Error("failed to delete output folder", zap.Error(err))
		return errutil.ServiceUnavailable("object storage unavailable", err)
	}
	if err := p.repo.Update(ctx, t.ID, map[string]any{
		"folder_status":    task.FolderPending,
		"output_folder_id": "",
	}); err != nil {
		return errutil.Internal("failed to reset folder status", err)
	}

	zapLog.Info("output folder removed")
	return nil
}
