package recurring

import (
	"context"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/option"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/schedule"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MigrationCandidate struct {
	ClientID        string    `json:"client_id"`
	DeliverableID   string    `json:"deliverable_id"`
	TemplateTaskID  string    `json:"template_task_id"`
	NextRunDate     time.Time `json:"next_run_date"`
	RecurringTaskID string    `json:"recurring_task_id,omitempty"`
}

type MigrateResult struct {
	DryRun        bool                 `json:"dry_run"`
	Linked        int                  `json:"linked"`
	AlreadyLinked int                  `json:"already_linked"`
	Candidates    []MigrationCandidate `json:"candidates"`
}

func earliestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("due_date ASC").Order("id ASC")
}

// Migrate links every deliverable that has tasks but no recurring task. The
// deliverable's earliest task becomes the template and the first run is due
// at the start of next month. With apply false nothing is written.
func (s *Service) Migrate(ctx context.Context, apply bool) (*MigrateResult, error) {
	zapLog := logger.FromContext(ctx)

	deliverables, err := s.deliverables.Find(ctx, &deliverable.MonthlyDeliverable{}, option.WithSortBy(option.QuerySortBy{SortBy: "id"}))
	if err != nil {
		zapLog.Error("failed to list deliverables", zap.Error(err))
		return nil, errutil.Internal("failed to list deliverables", err)
	}

	now := s.now().In(s.loc)
	_, nextRun := schedule.MonthBounds(now.Year(), now.Month(), s.loc)

	result := &MigrateResult{DryRun: !apply, Candidates: []MigrationCandidate{}}
	for _, d := range deliverables {
		exist, err := s.recurring.FindOne(ctx, &RecurringTask{ClientID: d.ClientID, DeliverableID: d.ID})
		if err != nil {
			return nil, errutil.Internal("failed to check recurring task", err)
		}
		if exist != nil {
			result.AlreadyLinked++
			continue
		}

		tmpl, err := s.tasks.FindOne(ctx, &task.Task{DeliverableID: d.ID}, earliestFirst)
		if err != nil {
			return nil, errutil.Internal("failed to find template task", err)
		}
		if tmpl == nil {
			continue
		}

		candidate := MigrationCandidate{
			ClientID:       d.ClientID,
			DeliverableID:  d.ID,
			TemplateTaskID: tmpl.ID,
			NextRunDate:    nextRun,
		}
		if !apply {
			result.Candidates = append(result.Candidates, candidate)
			continue
		}

		rt := &RecurringTask{
			ID:             s.node.Generate().String(),
			ClientID:       d.ClientID,
			DeliverableID:  d.ID,
			TemplateTaskID: tmpl.ID,
			Active:         true,
			NextRunDate:    nextRun,
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rt)
		if res.Error != nil {
			zapLog.Error("failed to create recurring task", zap.String("deliverable_id", d.ID), zap.Error(res.Error))
			return nil, errutil.Internal("failed to create recurring task", res.Error)
		}
		if res.RowsAffected == 0 {
			result.AlreadyLinked++
			continue
		}

		candidate.RecurringTaskID = rt.ID
		result.Candidates = append(result.Candidates, candidate)
		result.Linked++
		zapLog.Info("recurring task linked",
			zap.String("recurring_task_id", rt.ID),
			zap.String("deliverable_id", d.ID),
			zap.String("template_task_id", tmpl.ID),
		)
	}

	return result, nil
}
