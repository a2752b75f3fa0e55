package recurring

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	queue "github.com/SahilSagvekar/my-app-sub003/pkg/task"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// jobTimeout bounds a queued run or backfill. The period lock must outlive it.
const jobTimeout = 30 * time.Minute

func NewRunTask(req RunRequest) *asynq.Task {
	payload, _ := json.Marshal(req)
	return asynq.NewTask(taskname.RecurringRun, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(jobTimeout),
		asynq.Queue(queue.QueueRecurring))
}

func NewBackfillTask(req BackfillRequest) *asynq.Task {
	payload, _ := json.Marshal(req)
	return asynq.NewTask(taskname.RecurringBackfill, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(jobTimeout),
		asynq.Queue(queue.QueueRecurring))
}

// HandleRunTask is the asynq worker entry for the monthly run. A run already
// in progress for the same period is not retried.
func (s *Service) HandleRunTask(ctx context.Context, t *asynq.Task) error {
	var req RunRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		zap.L().Error("invalid recurring run payload", zap.Error(err))
		return errors.Join(err, asynq.SkipRetry)
	}

	zap.L().Info("Processing recurring run", zap.Int("year", req.Year), zap.Int("month", req.Month), zap.Bool("force", req.Force))

	result, err := s.Run(ctx, req)
	if err != nil {
		return skipIfTerminal(err)
	}

	zap.L().Info("Finished recurring run", zap.String("period", result.Period), zap.Int("created", result.Created))
	return nil
}

func (s *Service) HandleBackfillTask(ctx context.Context, t *asynq.Task) error {
	var req BackfillRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		zap.L().Error("invalid backfill payload", zap.Error(err))
		return errors.Join(err, asynq.SkipRetry)
	}

	result, err := s.Backfill(ctx, req)
	if err != nil {
		return skipIfTerminal(err)
	}

	zap.L().Info("Finished backfill", zap.String("period", result.Period), zap.Int("created", result.Created))
	return nil
}

// skipIfTerminal stops asynq from retrying errors a retry cannot fix.
func skipIfTerminal(err error) error {
	v := errutil.From(err)
	switch v.Code {
	case errutil.StatusConflict:
		zap.L().Warn("recurring job skipped", zap.Error(err))
		return nil
	case errutil.StatusBadRequest, errutil.StatusValidationFailed, errutil.StatusNotFound:
		return errors.Join(err, asynq.SkipRetry)
	default:
		return err
	}
}

// EnqueueRun queues a run on the recurring queue instead of running inline.
func (s *Service) EnqueueRun(ctx context.Context, req RunRequest) (*asynq.TaskInfo, error) {
	return s.enqueue(ctx, NewRunTask(req))
}

func (s *Service) EnqueueBackfill(ctx context.Context, req BackfillRequest) (*asynq.TaskInfo, error) {
	return s.enqueue(ctx, NewBackfillTask(req))
}

func (s *Service) enqueue(ctx context.Context, t *asynq.Task) (*asynq.TaskInfo, error) {
	if s.enqueuer == nil {
		return nil, errutil.ServiceUnavailable("job queue not configured", nil)
	}
	info, err := s.enqueuer.Enqueue(ctx, t)
	if err != nil {
		zap.L().Error("failed to enqueue recurring job", zap.String("task_type", t.Type()), zap.Error(err))
		return nil, errutil.ServiceUnavailable("failed to enqueue job", err)
	}
	return info, nil
}

func RegisterHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.RecurringRun, s.HandleRunTask)
	mux.HandleFunc(taskname.RecurringBackfill, s.HandleBackfillTask)
}
