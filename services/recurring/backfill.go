package recurring

import (
	"context"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/option"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/rediskey"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/task"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BackfillRequest struct {
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	ClientID      string `json:"client_id"`
	DeliverableID string `json:"deliverable_id"`
	DryRun        bool   `json:"dry_run"`
}

type BackfillResult struct {
	Period       string    `json:"period"`
	DryRun       bool      `json:"dry_run"`
	Created      int       `json:"created"`
	Deliverables []Outcome `json:"deliverables"`
}

// Backfill creates the tasks missing from each in-scope deliverable's month.
// Running it twice creates nothing the second time.
func (s *Service) Backfill(ctx context.Context, req BackfillRequest) (_ *BackfillResult, err error) {
	year, month, err := s.targetMonth(req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	period := Period(year, month)

	ctx, span := tracer.Start(ctx, "recurring.Backfill")
	span.SetAttributes(attribute.String("period", period), attribute.Bool("dry_run", req.DryRun))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	zapLog := logger.FromContext(ctx).With(zap.String("period", period), zap.Bool("dry_run", req.DryRun))

	deliverables, err := s.backfillScope(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Period: period, DryRun: req.DryRun, Deliverables: make([]Outcome, 0, len(deliverables))}
	err = s.withLock(ctx, rediskey.BuildRecurringLockKey(period), func() error {
		clients := s.newClientCache()
		for _, d := range deliverables {
			out := s.backfillOne(ctx, clients, d, year, month, req.DryRun)
			result.Created += out.Created
			result.Deliverables = append(result.Deliverables, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zapLog.Info("backfill finished",
		zap.Int("deliverables", len(result.Deliverables)),
		zap.Int("created", result.Created),
	)
	return result, nil
}

func (s *Service) backfillScope(ctx context.Context, req BackfillRequest) ([]*deliverable.MonthlyDeliverable, error) {
	switch {
	case req.DeliverableID != "":
		d, err := s.deliverables.FindOne(ctx, &deliverable.MonthlyDeliverable{ID: req.DeliverableID})
		if err != nil {
			return nil, errutil.Internal("failed to load deliverable", err)
		}
		if d == nil {
			return nil, errutil.NotFound("deliverable not found", nil)
		}
		if req.ClientID != "" && d.ClientID != req.ClientID {
			return nil, errutil.ValidationFailed("deliverable does not belong to client", nil)
		}
		return []*deliverable.MonthlyDeliverable{d}, nil
	case req.ClientID != "":
		c, err := s.clients.FindOne(ctx, &client.Client{ID: req.ClientID})
		if err != nil {
			return nil, errutil.Internal("failed to load client", err)
		}
		if c == nil {
			return nil, errutil.NotFound("client not found", nil)
		}
		out, err := s.deliverables.Find(ctx, &deliverable.MonthlyDeliverable{ClientID: c.ID}, option.WithSortBy(option.QuerySortBy{SortBy: "id"}))
		if err != nil {
			return nil, errutil.Internal("failed to list deliverables", err)
		}
		return out, nil
	default:
		out, err := s.deliverables.Find(ctx, &deliverable.MonthlyDeliverable{}, option.WithSortBy(option.QuerySortBy{SortBy: "id"}))
		if err != nil {
			return nil, errutil.Internal("failed to list deliverables", err)
		}
		return out, nil
	}
}

func (s *Service) backfillOne(ctx context.Context, clients *clientCache, d *deliverable.MonthlyDeliverable, year int, month time.Month, dryRun bool) Outcome {
	zapLog := logger.FromContext(ctx).With(zap.String("deliverable_id", d.ID))
	base := Outcome{DeliverableID: d.ID, ClientID: d.ClientID, Expected: d.Quantity}

	c, err := clients.get(ctx, d.ClientID)
	if err != nil {
		zapLog.Error("failed to load client", zap.Error(err))
		return skipped(base, ReasonError)
	}
	if c == nil {
		return skipped(base, ReasonMissingClient)
	}

	rt, err := s.recurring.FindOne(ctx, &RecurringTask{ClientID: d.ClientID, DeliverableID: d.ID})
	if err != nil {
		zapLog.Error("failed to load recurring task", zap.Error(err))
		return skipped(base, ReasonError)
	}
	assignment, err := s.templateAssignment(ctx, rt)
	if err != nil {
		zapLog.Error("failed to load template task", zap.Error(err))
		return skipped(base, ReasonError)
	}

	var (
		out     Outcome
		created []*task.Task
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, created, err = s.fill(ctx, tx, fillInput{
			Client:      c,
			Deliverable: d,
			Year:        year,
			Month:       month,
			Recurring:   rt,
			Assignment:  assignment,
			DryRun:      dryRun,
		})
		return err
	})
	if err != nil {
		zapLog.Error("backfill failed for deliverable", zap.Error(err))
		return skipped(base, ReasonError)
	}

	if !dryRun {
		s.provision(ctx, &out, created, c)
	}
	if out.Created > 0 {
		zapLog.Info("backfilled deliverable", zap.Int("existing", out.Existing), zap.Int("created", out.Created))
	}
	return out
}
