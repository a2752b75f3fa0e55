package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/db/option"
	"github.com/SahilSagvekar/my-app-sub003/pkg/db/pagination"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/repository"
	"github.com/SahilSagvekar/my-app-sub003/pkg/schedule"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ClientGetter interface {
	GetClient(ctx context.Context, id string) (*client.Client, error)
}

type DeliverableGetter interface {
	GetDeliverable(ctx context.Context, id string) (*deliverable.MonthlyDeliverable, error)
}

// FolderProvisioner creates a task's output folder. Failures are recorded on
// the task by the provisioner and never undo the task itself.
type FolderProvisioner interface {
	Provision(ctx context.Context, t *Task, root string) error
}

type Service struct {
	db           *gorm.DB
	node         *snowflake.Node
	loc          *time.Location
	clients      ClientGetter
	deliverables DeliverableGetter
	folders      FolderProvisioner
	repo         repository.Repository[Task]
}

type ServiceParams struct {
	fx.In
	DB           *gorm.DB
	Node         *snowflake.Node
	Config       *config.Config
	Clients      *client.Service
	Deliverables *deliverable.Service
	Folders      FolderProvisioner
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		loc:          p.Config.Location(),
		clients:      p.Clients,
		deliverables: p.Deliverables,
		folders:      p.Folders,
		repo:         repository.ProvideStore[Task](p.DB),
	}
}

// InMonth restricts a task query to due dates within [start, end), ordered by
// due date then sequence.
func InMonth(start, end time.Time) option.QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		db = option.ApplyOperator(
			option.Condition{Field: "due_date", Operator: option.GTE, Value: start.UTC()},
			option.Condition{Field: "due_date", Operator: option.LT, Value: end.UTC()},
		)(db)
		return db.Order("due_date ASC").Order("sequence ASC")
	}
}

type CreateTaskRequest struct {
	ClientID      string     `json:"client_id"`
	DeliverableID string     `json:"deliverable_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	TaskType      string     `json:"task_type"`
	DueDate       *time.Time `json:"due_date"`
	Assignment
}

// CreateTask creates a single ad-hoc task. When the task belongs to a
// deliverable and has no title, the title continues the deliverable's
// numbering for the due month.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	zapLog := logger.FromContext(ctx)

	if strings.TrimSpace(req.ClientID) == "" {
		return nil, errutil.ValidationFailed("client_id is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "client_id", Message: "required"}))
	}
	c, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	due := time.Now().In(s.loc)
	if req.DueDate != nil {
		due = req.DueDate.In(s.loc)
	}

	t := &Task{
		ID:           s.node.Generate().String(),
		ClientID:     c.ID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		TaskType:     req.TaskType,
		DueDate:      due.UTC(),
		Status:       StatusPending,
		FolderStatus: FolderPending,
	}
	t.Assign(req.Assignment)

	if req.DeliverableID != "" {
		d, err := s.deliverables.GetDeliverable(ctx, req.DeliverableID)
		if err != nil {
			return nil, err
		}
		if d.ClientID != c.ID {
			return nil, errutil.ValidationFailed("deliverable does not belong to client", nil,
				errutil.WithDetails(errutil.Detail{Field: "deliverable_id", Message: "client mismatch"}))
		}

		start, end := schedule.MonthBounds(due.Year(), due.Month(), s.loc)
		existing, err := s.repo.Find(ctx, &Task{DeliverableID: d.ID}, InMonth(start, end))
		if err != nil {
			zapLog.Error("failed to count deliverable tasks", zap.String("deliverable_id", d.ID), zap.Error(err))
			return nil, errutil.Internal("failed to create task", err)
		}

		t.DeliverableID = d.ID
		t.Sequence = NextSequence(existing)
		t.SequenceKey = SequenceKey(d.ID, due, s.loc, t.Sequence)
		if t.TaskType == "" {
			t.TaskType = d.Type
		}
		if t.Title == "" {
			t.Title = taskname.Title(c.CompanyName, due, d.Type, t.Sequence)
		}
	}

	if t.Title == "" {
		return nil, errutil.ValidationFailed("title is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "title", Message: "required"}))
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errutil.Conflict("task sequence already taken, retry", err)
		}
		zapLog.Error("failed to create task", zap.String("client_id", c.ID), zap.Error(err))
		return nil, errutil.Internal("failed to create task", err)
	}

	if s.folders != nil {
		if err := s.folders.Provision(ctx, t, c.StorageRoot()); err != nil {
			zapLog.Warn("task created without output folder", zap.String("task_id", t.ID), zap.Error(err))
		}
	}

	zapLog.Info("task created", zap.String("task_id", t.ID), zap.String("title", t.Title))
	return t, nil
}

// NextSequence continues after the highest sequence already used in the
// deliverable month.
func NextSequence(existing []*Task) int {
	last := len(existing)
	for _, t := range existing {
		if t.Sequence > last {
			last = t.Sequence
		}
	}
	return last + 1
}

func (s *Service) GetTask(ctx context.Context, id string) (*Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errutil.BadRequest("task_id is required", nil)
	}

	t, err := s.repo.FindOne(ctx, &Task{ID: id})
	if err != nil {
		logger.FromContext(ctx).Error("failed to get task", zap.String("task_id", id), zap.Error(err))
		return nil, errutil.Internal("failed to get task", err)
	}
	if t == nil {
		return nil, errutil.NotFound("task not found", nil)
	}
	return t, nil
}

type ListTasksRequest struct {
	ClientID      string `form:"client_id"`
	DeliverableID string `form:"deliverable_id"`
	Status        Status `form:"status"`
	AssignedTo    string `form:"assigned_to"`
	pagination.Pagination
}

func (s *Service) ListTasks(ctx context.Context, req ListTasksRequest) ([]*Task, *pagination.PageInfo, error) {
	if req.Status != "" && !req.Status.Valid() {
		return nil, nil, errutil.BadRequest("invalid status filter", nil)
	}

	query := &Task{
		ClientID:      req.ClientID,
		DeliverableID: req.DeliverableID,
		Status:        req.Status,
		AssignedTo:    req.AssignedTo,
	}
	tasks, err := s.repo.Find(ctx, query, option.ApplyPagination(req.Pagination))
	if err != nil {
		logger.FromContext(ctx).Error("failed to list tasks", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list tasks", err)
	}

	out, info := pagination.Paginate(tasks, req.Limit, func(t *Task) pagination.Cursor {
		return pagination.Cursor{ID: t.ID}
	})
	return out, info, nil
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus moves a task through the review lifecycle. The current status
// is part of the update condition so concurrent moves cannot both succeed.
func (s *Service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Task, error) {
	zapLog := logger.FromContext(ctx)

	if !req.Status.Valid() {
		return nil, errutil.ValidationFailed("invalid status", nil,
			errutil.WithDetails(errutil.Detail{Field: "status", Message: "unknown status"}))
	}

	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, req.Status) {
		return nil, errutil.ValidationFailed("status transition not allowed", nil,
			errutil.WithDetails(errutil.Detail{Field: "status", Message: string(t.Status) + " -> " + string(req.Status)}))
	}

	res := s.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND status = ?", t.ID, t.Status).
		Update("status", req.Status)
	if res.Error != nil {
		zapLog.Error("failed to update task status", zap.String("task_id", t.ID), zap.Error(res.Error))
		return nil, errutil.Internal("failed to update task status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errutil.Conflict("task status changed concurrently", nil)
	}

	zapLog.Info("task status updated",
		zap.String("task_id", t.ID),
		zap.String("from", string(t.Status)),
		zap.String("to", string(req.Status)),
	)
	t.Status = req.Status
	return t, nil
}
