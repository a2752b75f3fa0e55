package recurring

import (
	"context"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"

	"go.uber.org/zap"
)

type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// SetActive turns a recurring link on or off. Inactive links are left out of
// the monthly run; backfill still covers their deliverable.
func (s *Service) SetActive(ctx context.Context, id string, req SetActiveRequest) (*RecurringTask, error) {
	if id == "" {
		return nil, errutil.BadRequest("recurring task id is required", nil)
	}
	if req.Active == nil {
		return nil, errutil.ValidationFailed("active is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "active", Message: "required"}))
	}

	rt, err := s.recurring.FindOne(ctx, &RecurringTask{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to load recurring task", err)
	}
	if rt == nil {
		return nil, errutil.NotFound("recurring task not found", nil)
	}
	if rt.Active == *req.Active {
		return rt, nil
	}

	if err := s.recurring.Update(ctx, id, map[string]any{"active": *req.Active}); err != nil {
		return nil, errutil.Internal("failed to update recurring task", err)
	}
	rt.Active = *req.Active

	logger.FromContext(ctx).Info("recurring task toggled", zap.String("recurring_task_id", id), zap.Bool("active", rt.Active))
	return rt, nil
}
