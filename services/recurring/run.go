package recurring

import (
	"context"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/option"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/rediskey"
	"github.com/SahilSagvekar/my-app-sub003/pkg/schedule"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RunRequest struct {
	Year  int  `json:"year"`
	Month int  `json:"month"`
	Force bool `json:"force"`
}

type RunResult struct {
	Period    string    `json:"period"`
	Processed int       `json:"processed"`
	Created   int       `json:"created"`
	Items     []Outcome `json:"items"`
}

// Run materializes the target month for every active recurring task that is
// due. Force ignores next_run_date; a recurring task that already has a run
// row for the period is still skipped.
func (s *Service) Run(ctx context.Context, req RunRequest) (_ *RunResult, err error) {
	year, month, err := s.targetMonth(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	period := Period(year, month)

	ctx, span := tracer.Start(ctx, "recurring.Run")
	span.SetAttributes(attribute.String("period", period), attribute.Bool("force", req.Force))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	zapLog := logger.FromContext(ctx).With(zap.String("period", period))

	result := &RunResult{Period: period}
	err = s.withLock(ctx, rediskey.BuildRecurringLockKey(period), func() error {
		rts, err := s.recurring.Find(ctx, &RecurringTask{Active: true}, option.WithSortBy(option.QuerySortBy{SortBy: "id"}))
		if err != nil {
			zapLog.Error("failed to list recurring tasks", zap.Error(err))
			return errutil.Internal("failed to list recurring tasks", err)
		}

		_, end := schedule.MonthBounds(year, month, s.loc)
		clients := s.newClientCache()
		for _, rt := range rts {
			base := Outcome{RecurringTaskID: rt.ID, DeliverableID: rt.DeliverableID, ClientID: rt.ClientID}
			if !req.Force && !rt.NextRunDate.Before(end) {
				result.Items = append(result.Items, skipped(base, ReasonNotDue))
				continue
			}

			out := s.runOne(ctx, clients, rt, year, month)
			if !out.Skipped || out.Reason != ReasonAlreadyRun {
				result.Processed++
			}
			result.Created += out.Created
			result.Items = append(result.Items, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("created", result.Created))
	zapLog.Info("recurring run finished",
		zap.Int("recurring_tasks", len(result.Items)),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
	)
	return result, nil
}

func (s *Service) runOne(ctx context.Context, clients *clientCache, rt *RecurringTask, year int, month time.Month) Outcome {
	zapLog := logger.FromContext(ctx).With(zap.String("recurring_task_id", rt.ID))
	base := Outcome{RecurringTaskID: rt.ID, DeliverableID: rt.DeliverableID, ClientID: rt.ClientID}

	d, err := s.deliverables.FindOne(ctx, &deliverable.MonthlyDeliverable{ID: rt.DeliverableID})
	if err != nil {
		zapLog.Error("failed to load deliverable", zap.Error(err))
		return skipped(base, ReasonError)
	}
	if d == nil {
		return skipped(base, ReasonMissingDeliverable)
	}
	base.Expected = d.Quantity

	c, err := clients.get(ctx, rt.ClientID)
	if err != nil {
		zapLog.Error("failed to load client", zap.Error(err))
		return skipped(base, ReasonError)
	}
	if c == nil {
		return skipped(base, ReasonMissingClient)
	}

	assignment, err := s.templateAssignment(ctx, rt)
	if err != nil {
		zapLog.Error("failed to load template task", zap.Error(err))
		return skipped(base, ReasonError)
	}

	period := Period(year, month)
	_, nextRun := schedule.MonthBounds(year, month, s.loc)
	now := s.now()

	var (
		out        Outcome
		created    []*task.Task
		alreadyRun bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := &RecurringRun{
			ID:              s.node.Generate().String(),
			RecurringTaskID: rt.ID,
			Period:          period,
			StartedAt:       now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(run)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			alreadyRun = true
			return nil
		}

		var err error
		out, created, err = s.fill(ctx, tx, fillInput{
			Client:      c,
			Deliverable: d,
			Year:        year,
			Month:       month,
			Recurring:   rt,
			Assignment:  assignment,
		})
		if err != nil {
			return err
		}

		completed := s.now()
		if err := tx.Model(run).Updates(map[string]any{
			"created_count": out.Created,
			"completed_at":  completed,
		}).Error; err != nil {
			return err
		}

		updates := map[string]any{"last_run_date": now}
		if rt.NextRunDate.Before(nextRun) {
			updates["next_run_date"] = nextRun
		}
		return tx.Model(&RecurringTask{}).Where("id = ?", rt.ID).Updates(updates).Error
	})
	if err != nil {
		zapLog.Error("recurring run failed", zap.Error(err))
		return skipped(base, ReasonError)
	}
	if alreadyRun {
		return skipped(base, ReasonAlreadyRun)
	}

	s.provision(ctx, &out, created, c)
	zapLog.Info("recurring task materialized",
		zap.String("deliverable_id", d.ID),
		zap.Int("existing", out.Existing),
		zap.Int("created", out.Created),
	)
	return out
}
