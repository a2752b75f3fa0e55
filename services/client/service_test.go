package client

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/option"
	"github.com/SahilSagvekar/my-app-sub003/pkg/db/pagination"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/repository"
	"github.com/SahilSagvekar/my-app-sub003/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockClientRepository struct {
	findOneFn func(ctx context.Context, query *Client, opts ...option.QueryOption) (*Client, error)
}

func (m *mockClientRepository) WithTrx(*gorm.DB) repository.Repository[Client] { return m }
func (m *mockClientRepository) Find(context.Context, *Client, ...option.QueryOption) ([]*Client, error) {
	return nil, nil
}
func (m *mockClientRepository) FindOne(ctx context.Context, query *Client, opts ...option.QueryOption) (*Client, error) {
	if m.findOneFn != nil {
		return m.findOneFn(ctx, query, opts...)
	}
	return nil, nil
}
func (m *mockClientRepository) Create(context.Context, *Client) error         { return nil }
func (m *mockClientRepository) Update(context.Context, string, any) error     { return nil }
func (m *mockClientRepository) BatchCreate(context.Context, []*Client) error  { return nil }
func (m *mockClientRepository) BatchUpdate(context.Context, []*Client) error  { return nil }
func (m *mockClientRepository) Count(context.Context, *Client) (int64, error) { return 0, nil }

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewTestDB(t, &Client{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParams{DB: db, Node: node})
}

func TestCreateClient(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.CreateClient(ctx, CreateClientRequest{CompanyName: "  Acme Media "})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Equal(t, "Acme Media", c.CompanyName)
	require.Equal(t, "Acme Media", c.StorageRoot())

	got, err := svc.GetClient(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	_, err = svc.CreateClient(ctx, CreateClientRequest{CompanyName: "Acme Media"})
	require.True(t, errutil.Is(err, errutil.StatusConflict))
}

func TestCreateClientValidation(t *testing.T) {
	svc := &Service{repo: &mockClientRepository{}}

	_, err := svc.CreateClient(context.Background(), CreateClientRequest{CompanyName: " "})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = svc.CreateClient(context.Background(), CreateClientRequest{CompanyName: "!!!"})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))
}

func TestGetClientErrors(t *testing.T) {
	repo := &mockClientRepository{}
	svc := &Service{repo: repo}

	_, err := svc.GetClient(context.Background(), "")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))

	_, err = svc.GetClient(context.Background(), "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	repo.findOneFn = func(context.Context, *Client, ...option.QueryOption) (*Client, error) {
		return nil, errors.New("boom")
	}
	_, err = svc.GetClient(context.Background(), "x")
	require.True(t, errutil.Is(err, errutil.StatusInternal))
}

func TestListClientsPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.CreateClient(ctx, CreateClientRequest{CompanyName: name})
		require.NoError(t, err)
	}

	first, info, err := svc.ListClients(ctx, pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, info.HasMore)

	rest, info, err := svc.ListClients(ctx, pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, info.HasMore)
}

func TestStorageRoot(t *testing.T) {
	c := &Client{CompanyName: "Acme", StorageFolder: "/clients/acme/"}
	require.Equal(t, "clients/acme", c.StorageRoot())
}
