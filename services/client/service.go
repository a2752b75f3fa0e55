package client

import (
	"context"
	"strings"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/option"
	"github.com/SahilSagvekar/my-app-sub003/pkg/db/pagination"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/logger"
	"github.com/SahilSagvekar/my-app-sub003/pkg/repository"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	node *snowflake.Node
	repo repository.Repository[Client]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node: p.Node,
		repo: repository.ProvideStore[Client](p.DB),
	}
}

type CreateClientRequest struct {
	CompanyName   string `json:"company_name"`
	StorageFolder string `json:"storage_folder"`
	DriveFolderID string `json:"drive_folder_id"`
	UserID        string `json:"user_id"`
}

func (s *Service) CreateClient(ctx context.Context, req CreateClientRequest) (*Client, error) {
	zapLog := logger.FromContext(ctx)

	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, errutil.ValidationFailed("company_name is required", nil,
			errutil.WithDetails(errutil.Detail{Field: "company_name", Message: "required"}))
	}

	if taskname.ClientSlug(name) == "" {
		return nil, errutil.ValidationFailed("company_name must contain letters or digits", nil,
			errutil.WithDetails(errutil.Detail{Field: "company_name", Message: "no usable characters for task titles"}))
	}

	exist, err := s.repo.FindOne(ctx, &Client{CompanyName: name})
	if err != nil {
		zapLog.Error("failed query client by company name", zap.Error(err))
		return nil, errutil.Internal("failed to check existing client", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("client already exists", nil)
	}

	c := &Client{
		ID:            s.node.Generate().String(),
		CompanyName:   name,
		StorageFolder: strings.Trim(req.StorageFolder, "/ "),
		DriveFolderID: req.DriveFolderID,
		UserID:        req.UserID,
	}
	if c.StorageFolder == "" {
		c.StorageFolder = name
	}

	if err := s.repo.Create(ctx, c); err != nil {
		zapLog.Error("failed to create client", zap.Error(err))
		return nil, errutil.Internal("failed to create client", err)
	}

	zapLog.Info("client created", zap.String("client_id", c.ID), zap.String("company_name", c.CompanyName))
	return c, nil
}

func (s *Service) GetClient(ctx context.Context, id string) (*Client, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errutil.BadRequest("client_id is required", nil)
	}

	c, err := s.repo.FindOne(ctx, &Client{ID: id})
	if err != nil {
		logger.FromContext(ctx).Error("failed to get client", zap.String("client_id", id), zap.Error(err))
		return nil, errutil.Internal("failed to get client", err)
	}
	if c == nil {
		return nil, errutil.NotFound("client not found", nil)
	}
	return c, nil
}

func (s *Service) ListClients(ctx context.Context, page pagination.Pagination) ([]*Client, *pagination.PageInfo, error) {
	clients, err := s.repo.Find(ctx, &Client{}, option.ApplyPagination(page))
	if err != nil {
		logger.FromContext(ctx).Error("failed to list clients", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list clients", err)
	}

	out, info := pagination.Paginate(clients, page.Limit, func(c *Client) pagination.Cursor {
		return pagination.Cursor{ID: c.ID}
	})
	return out, info, nil
}
