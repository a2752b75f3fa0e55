package deliverable

import (
	"context"
	"strings"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/repository"
	"github.com/SahilSagvekar/my-app-sub003/pkg/schedule"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"
	"github.com/SahilSagvekar/my-app-sub003/services/client"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClientGetter resolves the owning client of a deliverable.
type ClientGetter interface {
	GetClient(ctx context.Context, id string) (*client.Client, error)
}

type Service struct {
	node    *snowflake.Node
	loc     *time.Location
	clients ClientGetter
	repo    repository.Repository[MonthlyDeliverable]
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Node    *snowflake.Node
	Config  *config.Config
	Clients *client.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:    p.Node,
		loc:     p.Config.Location(),
		clients: p.Clients,
		repo:    repository.ProvideStore[MonthlyDeliverable](p.DB),
	}
}

type CreateDeliverableRequest struct {
	Type            string   `json:"type"`
	Quantity        int      `json:"quantity"`
	VideosPerDay    int      `json:"videos_per_day"`
	PostingSchedule string   `json:"posting_schedule"`
	PostingDays     []string `json:"posting_days"`
	PostingTimes    []string `json:"posting_times"`
}

func (r CreateDeliverableRequest) validate() error {
	var details []errutil.Detail
	if strings.TrimSpace(r.Type) == "" {
		details = append(details, errutil.Detail{Field: "type", Message: "required"})
	}
	if r.Quantity < 0 {
		details = append(details, errutil.Detail{Field: "quantity", Message: "must be >= 0"})
	}
	if r.VideosPerDay < 0 {
		details = append(details, errutil.Detail{Field: "videos_per_day", Message: "must be >= 1"})
	}
	if !schedule.PostingSchedule(r.PostingSchedule).Valid() {
		details = append(details, errutil.Detail{Field: "posting_schedule", Message: "must be one of weekly, bi-weekly, monthly, custom"})
	}
	if err := schedule.ValidateDays(r.PostingDays); err != nil {
		details = append(details, errutil.Detail{Field: "posting_days", Message: err.Error()})
	}
	if err := schedule.ValidateTimes(r.PostingTimes); err != nil {
		details = append(details, errutil.Detail{Field: "posting_times", Message: err.Error()})
	}
	if len(details) > 0 {
		return errutil.ValidationFailed("invalid deliverable", nil, errutil.WithDetails(details...))
	}
	return nil
}

func (s *Service) CreateDeliverable(ctx context.Context, clientID string, req CreateDeliverableRequest) (*MonthlyDeliverable, error) {
	zapLog := logger.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	perDay := req.VideosPerDay
	if perDay == 0 {
		perDay = 1
	}

	d := &MonthlyDeliverable{
		ID:              s.node.Generate().String(),
		ClientID:        clientID,
		Type:            strings.TrimSpace(req.Type),
		Quantity:        req.Quantity,
		VideosPerDay:    perDay,
		PostingSchedule: schedule.PostingSchedule(req.PostingSchedule),
		PostingDays:     trimAll(req.PostingDays),
		PostingTimes:    trimAll(req.PostingTimes),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		zapLog.Error("failed to create deliverable", zap.String("client_id", clientID), zap.Error(err))
		return nil, errutil.Internal("failed to create deliverable", err)
	}

	zapLog.Info("deliverable created",
		zap.String("deliverable_id", d.ID),
		zap.String("client_id", clientID),
		zap.String("type", d.Type),
		zap.Int("quantity", d.Quantity),
	)
	return d, nil
}

func (s *Service) GetDeliverable(ctx context.Context, id string) (*MonthlyDeliverable, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errutil.BadRequest("deliverable_id is required", nil)
	}

	d, err := s.repo.FindOne(ctx, &MonthlyDeliverable{ID: id})
	if err != nil {
		logger.FromContext(ctx).Error("failed to get deliverable", zap.String("deliverable_id", id), zap.Error(err))
		return nil, errutil.Internal("failed to get deliverable", err)
	}
	if d == nil {
		return nil, errutil.NotFound("deliverable not found", nil)
	}
	return d, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*MonthlyDeliverable, error) {
	if _, err := s.clients.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	out, err := s.repo.Find(ctx, &MonthlyDeliverable{ClientID: clientID})
	if err != nil {
		logger.FromContext(ctx).Error("failed to list deliverables", zap.String("client_id", clientID), zap.Error(err))
		return nil, errutil.Internal("failed to list deliverables", err)
	}
	return out, nil
}

type PreviewSlot struct {
	Sequence int       `json:"sequence"`
	DueDate  time.Time `json:"due_date"`
	Title    string    `json:"title"`
	Folder   string    `json:"folder"`
}

type Preview struct {
	DeliverableID string        `json:"deliverable_id"`
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	Slots         []PreviewSlot `json:"slots"`
}

// PreviewSchedule lists the slots, titles and folders a month would get
// without writing anything.
func (s *Service) PreviewSchedule(ctx context.Context, id string, year int, month time.Month) (*Preview, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, errutil.BadRequest("invalid year or month", nil)
	}

	d, err := s.GetDeliverable(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.clients.GetClient(ctx, d.ClientID)
	if err != nil {
		return nil, err
	}

	slots := schedule.Generate(d.ScheduleParams(year, month, s.loc))
	out := &Preview{DeliverableID: d.ID, Year: year, Month: int(month), Slots: make([]PreviewSlot, 0, len(slots))}
	for i, slot := range slots {
		title := taskname.Title(c.CompanyName, slot.Date, d.Type, i+1)
		out.Slots = append(out.Slots, PreviewSlot{
			Sequence: i + 1,
			DueDate:  slot.Date,
			Title:    title,
			Folder:   taskname.OutputFolder(c.StorageRoot(), title),
		})
	}
	return out, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
