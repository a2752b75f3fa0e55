package recurring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/redis"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"
	"github.com/SahilSagvekar/my-app-sub003/services/client"
	"github.com/SahilSagvekar/my-app-sub003/services/deliverable"
	"github.com/SahilSagvekar/my-app-sub003/services/provisioning"
	"github.com/SahilSagvekar/my-app-sub003/services/task"
	"github.com/SahilSagvekar/my-app-sub003/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeStorage struct {
	mu      sync.Mutex
	folders []string
	err     error
}

func (f *fakeStorage) EnsureFolder(context.Context, string) error { return nil }

func (f *fakeStorage) ProvisionOutputFolder(_ context.Context, root, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	folder := taskname.OutputFolder(root, title)
	f.folders = append(f.folders, folder)
	return folder, nil
}

func (f *fakeStorage) List(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeStorage) DeleteFolder(context.Context, string) error     { return nil }
func (f *fakeStorage) Ping(context.Context) error                     { return nil }

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{ID: t.Type(), Queue: "recurring"}, nil
}

type fakeLocker struct {
	held  map[string]bool
	keys  []string
	ttls  []time.Duration
	err   error
	freed int
}

func (f *fakeLocker) Lock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	f.ttls = append(f.ttls, ttl)
	if f.err != nil {
		return nil, f.err
	}
	if f.held[key] {
		return nil, redis.ErrLockHeld
	}
	f.keys = append(f.keys, key)
	return func(context.Context) error {
		f.freed++
		return nil
	}, nil
}

type fixture struct {
	svc          *Service
	db           *gorm.DB
	storage      *fakeStorage
	enqueuer     *fakeEnqueuer
	locker       *fakeLocker
	deliverables *deliverable.Service
	client       *client.Client
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t,
		&client.Client{},
		&deliverable.MonthlyDeliverable{},
		&task.Task{},
		&RecurringTask{},
		&RecurringRun{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Scheduler.LockTTL = time.Minute

	clients := client.NewService(client.ServiceParams{DB: db, Node: node})
	deliverables := deliverable.NewService(deliverable.ServiceParams{DB: db, Node: node, Config: cfg, Clients: clients})
	c, err := clients.CreateClient(context.Background(), client.CreateClientRequest{CompanyName: "Acme Media"})
	require.NoError(t, err)

	st := &fakeStorage{}
	enq := &fakeEnqueuer{}
	locker := &fakeLocker{held: map[string]bool{}}
	folders := provisioning.NewProvisioner(provisioning.Params{DB: db, Storage: st, Enqueuer: enq})

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Config:   cfg,
		Locker:   locker,
		Folders:  folders,
		Enqueuer: enq,
	})
	svc.now = func() time.Time { return time.Date(2025, time.September, 10, 12, 0, 0, 0, time.UTC) }

	return &fixture{
		svc:          svc,
		db:           db,
		storage:      st,
		enqueuer:     enq,
		locker:       locker,
		deliverables: deliverables,
		client:       c,
	}
}

// mondays: September 2025 Mondays are 1, 8, 15, 22, 29.
func (f *fixture) mondays(t *testing.T, quantity int) *deliverable.MonthlyDeliverable {
	t.Helper()
	d, err := f.deliverables.CreateDeliverable(context.Background(), f.client.ID, deliverable.CreateDeliverableRequest{
		Type:            "Short Form Videos",
		Quantity:        quantity,
		VideosPerDay:    1,
		PostingSchedule: "weekly",
		PostingDays:     []string{"Monday"},
		PostingTimes:    []string{"10:00"},
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) seedTask(t *testing.T, d *deliverable.MonthlyDeliverable, due time.Time, seq int, assignee string) *task.Task {
	t.Helper()
	row := &task.Task{
		ID:            "seed-" + due.Format("0102") + "-" + d.ID,
		ClientID:      d.ClientID,
		DeliverableID: d.ID,
		Title:         taskname.Title(f.client.CompanyName, due, d.Type, seq),
		TaskType:      d.Type,
		Sequence:      seq,
		DueDate:       due,
		Status:        task.StatusPending,
		FolderStatus:  task.FolderProvisioned,
		AssignedTo:    assignee,
		QCSpecialist:  "qc-1",
	}
	require.NoError(t, f.db.Create(row).Error)
	return row
}

func (f *fixture) tasksOf(t *testing.T, deliverableID string) []*task.Task {
	t.Helper()
	var out []*task.Task
	require.NoError(t, f.db.Where("deliverable_id = ?", deliverableID).Order("due_date ASC").Order("sequence ASC").Find(&out).Error)
	return out
}

func sept(day int) time.Time {
	return time.Date(2025, time.September, day, 10, 0, 0, 0, time.UTC)
}

func TestBackfillFillsMonthAndIsIdempotent(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 4)
	ctx := context.Background()

	res, err := f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Equal(t, "2025-09", res.Period)
	require.Equal(t, 4, res.Created)
	require.Len(t, res.Deliverables, 1)
	require.Equal(t, []string{
		"AcmeMedia_09-01-2025_SF1",
		"AcmeMedia_09-08-2025_SF2",
		"AcmeMedia_09-15-2025_SF3",
		"AcmeMedia_09-22-2025_SF4",
	}, res.Deliverables[0].Titles)

	rows := f.tasksOf(t, d.ID)
	require.Len(t, rows, 4)
	for i, row := range rows {
		require.Equal(t, i+1, row.Sequence)
		require.Equal(t, task.FolderProvisioned, row.FolderStatus)
		require.Equal(t, taskname.OutputFolder("Acme Media", row.Title), row.OutputFolderID)
		require.Equal(t, task.StatusPending, row.Status)
	}
	require.Len(t, f.storage.folders, 4)
	require.Equal(t, []string{"lock:recurring:2025-09"}, f.locker.keys)
	require.Equal(t, 1, f.locker.freed)

	again, err := f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Zero(t, again.Created)
	require.True(t, again.Deliverables[0].Skipped)
	require.Equal(t, ReasonComplete, again.Deliverables[0].Reason)
	require.Len(t, f.tasksOf(t, d.ID), 4)
}

func TestBackfillContinuesSequenceAfterExistingTasks(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 3)
	ctx := context.Background()
	f.seedTask(t, d, sept(1), 1, "editor-1")

	res, err := f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9, DeliverableID: d.ID})
	require.NoError(t, err)
	out := res.Deliverables[0]
	require.Equal(t, 1, out.Existing)
	require.Equal(t, 2, out.Created)
	require.Equal(t, []string{"AcmeMedia_09-08-2025_SF2", "AcmeMedia_09-15-2025_SF3"}, out.Titles)

	// grow the deliverable; numbering keeps going from where it stopped
	require.NoError(t, f.db.Model(d).Update("quantity", 6).Error)
	res, err = f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9, DeliverableID: d.ID})
	require.NoError(t, err)
	out = res.Deliverables[0]
	require.Equal(t, 3, out.Existing)
	require.Equal(t, 2, out.Created)
	require.Equal(t, ReasonSlotsExhausted, out.Reason)
	require.Equal(t, []string{"AcmeMedia_09-22-2025_SF4", "AcmeMedia_09-29-2025_SF5"}, out.Titles)

	rows := f.tasksOf(t, d.ID)
	require.Len(t, rows, 5)
	for i, row := range rows {
		require.Equal(t, i+1, row.Sequence)
	}
}

func TestBackfillResumesAfterReconfiguration(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 4)
	// two tasks from an earlier Tuesday configuration
	f.seedTask(t, d, sept(2), 1, "")
	f.seedTask(t, d, sept(9), 2, "")

	res, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9, DeliverableID: d.ID})
	require.NoError(t, err)
	require.Equal(t, []string{"AcmeMedia_09-15-2025_SF3", "AcmeMedia_09-22-2025_SF4"}, res.Deliverables[0].Titles)
}

func TestBackfillCopiesTemplateAssignment(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 2)
	ctx := context.Background()
	f.seedTask(t, d, sept(1), 1, "editor-1")

	_, err := f.svc.Migrate(ctx, true)
	require.NoError(t, err)

	_, err = f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9})
	require.NoError(t, err)

	rows := f.tasksOf(t, d.ID)
	require.Len(t, rows, 2)
	require.Equal(t, "editor-1", rows[1].AssignedTo)
	require.Equal(t, "qc-1", rows[1].QCSpecialist)
	require.NotNil(t, rows[1].RecurringTaskID)
}

func TestBackfillDryRunWritesNothing(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 2)

	res, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9, DryRun: true})
	require.NoError(t, err)
	require.True(t, res.DryRun)
	require.Equal(t, 2, res.Created)
	require.Len(t, res.Deliverables[0].Titles, 2)
	require.Empty(t, f.tasksOf(t, d.ID))
	require.Empty(t, f.storage.folders)
}

func TestBackfillSkipsDeliverableWithoutPostingDays(t *testing.T) {
	f := setup(t)
	d, err := f.deliverables.CreateDeliverable(context.Background(), f.client.ID, deliverable.CreateDeliverableRequest{
		Type:            "Stories",
		Quantity:        3,
		PostingSchedule: "weekly",
	})
	require.NoError(t, err)

	res, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9, ClientID: f.client.ID})
	require.NoError(t, err)
	require.Len(t, res.Deliverables, 1)
	require.True(t, res.Deliverables[0].Skipped)
	require.Equal(t, ReasonNoPostingDays, res.Deliverables[0].Reason)
	require.Empty(t, f.tasksOf(t, d.ID))
}

func TestBackfillScopeErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9, DeliverableID: "missing"})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 9, ClientID: "missing"})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	_, err = f.svc.Backfill(ctx, BackfillRequest{Year: 2025, Month: 13})
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))
}

func TestBackfillFolderFailureFlagsTasks(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 2)
	f.storage.err = errors.New("s3 down")

	res, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Equal(t, 2, res.Created)
	require.Equal(t, 2, res.Deliverables[0].FolderFailures)

	rows := f.tasksOf(t, d.ID)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, task.FolderFailed, row.FolderStatus)
	}

	require.Len(t, f.enqueuer.tasks, 2)
	for _, job := range f.enqueuer.tasks {
		require.Equal(t, taskname.StorageProvisionFolder, job.Type())
	}
}

func TestMigratePreviewAndApply(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	linked := f.mondays(t, 4)
	f.mondays(t, 2) // no tasks, not a candidate
	tmpl := f.seedTask(t, linked, sept(1), 1, "editor-1")
	f.seedTask(t, linked, sept(8), 2, "editor-2")

	preview, err := f.svc.Migrate(ctx, false)
	require.NoError(t, err)
	require.True(t, preview.DryRun)
	require.Len(t, preview.Candidates, 1)
	require.Equal(t, tmpl.ID, preview.Candidates[0].TemplateTaskID)
	require.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), preview.Candidates[0].NextRunDate)

	var count int64
	require.NoError(t, f.db.Model(&RecurringTask{}).Count(&count).Error)
	require.Zero(t, count)

	applied, err := f.svc.Migrate(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, applied.Linked)
	require.NotEmpty(t, applied.Candidates[0].RecurringTaskID)

	again, err := f.svc.Migrate(ctx, true)
	require.NoError(t, err)
	require.Zero(t, again.Linked)
	require.Equal(t, 1, again.AlreadyLinked)

	require.NoError(t, f.db.Model(&RecurringTask{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRunIsIdempotentPerPeriod(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d := f.mondays(t, 4)
	f.seedTask(t, d, sept(1), 1, "editor-1")

	_, err := f.svc.Migrate(ctx, true)
	require.NoError(t, err)

	// next run is October; September is not due
	res, err := f.svc.Run(ctx, RunRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Zero(t, res.Created)
	require.Equal(t, ReasonNotDue, res.Items[0].Reason)

	// October 2025 Mondays are 6, 13, 20, 27
	res, err = f.svc.Run(ctx, RunRequest{Year: 2025, Month: 10})
	require.NoError(t, err)
	require.Equal(t, "2025-10", res.Period)
	require.Equal(t, 1, res.Processed)
	require.Equal(t, 4, res.Created)
	require.Equal(t, []string{
		"AcmeMedia_10-06-2025_SF1",
		"AcmeMedia_10-13-2025_SF2",
		"AcmeMedia_10-20-2025_SF3",
		"AcmeMedia_10-27-2025_SF4",
	}, res.Items[0].Titles)

	var rt RecurringTask
	require.NoError(t, f.db.First(&rt).Error)
	require.Equal(t, time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC), rt.NextRunDate.UTC())
	require.NotNil(t, rt.LastRunDate)

	for _, req := range []RunRequest{{Year: 2025, Month: 10}, {Year: 2025, Month: 10, Force: true}} {
		again, err := f.svc.Run(ctx, req)
		require.NoError(t, err)
		require.Zero(t, again.Created)
	}

	forced, err := f.svc.Run(ctx, RunRequest{Year: 2025, Month: 10, Force: true})
	require.NoError(t, err)
	require.Equal(t, ReasonAlreadyRun, forced.Items[0].Reason)
	require.Zero(t, forced.Processed)

	var runs []RecurringRun
	require.NoError(t, f.db.Find(&runs).Error)
	require.Len(t, runs, 1)
	require.Equal(t, "2025-10", runs[0].Period)
	require.Equal(t, 4, runs[0].CreatedCount)
	require.NotNil(t, runs[0].CompletedAt)

	rows := f.tasksOf(t, d.ID)
	require.Len(t, rows, 5)
	require.Equal(t, "editor-1", rows[4].AssignedTo)
}

func TestRunForceContinuesCurrentMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d := f.mondays(t, 3)
	f.seedTask(t, d, sept(1), 1, "editor-1")

	_, err := f.svc.Migrate(ctx, true)
	require.NoError(t, err)

	res, err := f.svc.Run(ctx, RunRequest{Force: true})
	require.NoError(t, err)
	require.Equal(t, "2025-09", res.Period)
	require.Equal(t, []string{"AcmeMedia_09-08-2025_SF2", "AcmeMedia_09-15-2025_SF3"}, res.Items[0].Titles)

	var rt RecurringTask
	require.NoError(t, f.db.First(&rt).Error)
	require.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), rt.NextRunDate.UTC())
}

func TestBackfillConflictsWithMonthlyRun(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 3)
	f.locker.held["lock:recurring:2025-09"] = true

	_, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9})
	require.True(t, errutil.Is(err, errutil.StatusConflict))
	require.Empty(t, f.tasksOf(t, d.ID))

	_, err = f.svc.Run(context.Background(), RunRequest{Year: 2025, Month: 9})
	require.True(t, errutil.Is(err, errutil.StatusConflict))
	require.Empty(t, f.locker.keys)
}

func TestBackfillTasksCarrySequenceKeys(t *testing.T) {
	f := setup(t)
	d := f.mondays(t, 2)

	_, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9})
	require.NoError(t, err)

	rows := f.tasksOf(t, d.ID)
	require.Len(t, rows, 2)
	for i, row := range rows {
		require.NotNil(t, row.SequenceKey)
		require.Equal(t, fmt.Sprintf("%s:2025-09:%d", d.ID, i+1), *row.SequenceKey)
	}
}

func TestLockOutlivesQueuedJob(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Backfill(context.Background(), BackfillRequest{Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Len(t, f.locker.ttls, 1)
	require.Greater(t, f.locker.ttls[0], jobTimeout)

	cfg := &config.Config{}
	cfg.Scheduler.LockTTL = 2 * time.Hour
	svc := NewService(ServiceParams{DB: f.db, Config: cfg})
	require.Equal(t, 2*time.Hour, svc.lockTTL)
}

func TestRunLockHeld(t *testing.T) {
	f := setup(t)
	f.locker.held["lock:recurring:2025-10"] = true

	_, err := f.svc.Run(context.Background(), RunRequest{Year: 2025, Month: 10})
	require.True(t, errutil.Is(err, errutil.StatusConflict))

	f.locker.err = errors.New("redis down")
	_, err = f.svc.Run(context.Background(), RunRequest{Year: 2025, Month: 11})
	require.True(t, errutil.Is(err, errutil.StatusServiceUnavailable))
}

func TestInactiveLinkPersistsAndIsSkippedByRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d := f.mondays(t, 4)

	require.NoError(t, f.db.Create(&RecurringTask{
		ID:            "rt-off",
		ClientID:      f.client.ID,
		DeliverableID: d.ID,
		Active:        false,
		NextRunDate:   time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	var stored RecurringTask
	require.NoError(t, f.db.First(&stored, "id = ?", "rt-off").Error)
	require.False(t, stored.Active)

	res, err := f.svc.Run(ctx, RunRequest{Year: 2025, Month: 10})
	require.NoError(t, err)
	require.Empty(t, res.Items)
	require.Empty(t, f.tasksOf(t, d.ID))
}

func TestSetActiveTogglesMonthlyRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d := f.mondays(t, 4)
	f.seedTask(t, d, sept(1), 1, "editor-1")

	_, err := f.svc.Migrate(ctx, true)
	require.NoError(t, err)
	var rt RecurringTask
	require.NoError(t, f.db.First(&rt).Error)
	require.True(t, rt.Active)

	off := false
	got, err := f.svc.SetActive(ctx, rt.ID, SetActiveRequest{Active: &off})
	require.NoError(t, err)
	require.False(t, got.Active)

	res, err := f.svc.Run(ctx, RunRequest{Year: 2025, Month: 10})
	require.NoError(t, err)
	require.Empty(t, res.Items)

	on := true
	got, err = f.svc.SetActive(ctx, rt.ID, SetActiveRequest{Active: &on})
	require.NoError(t, err)
	require.True(t, got.Active)

	res, err = f.svc.Run(ctx, RunRequest{Year: 2025, Month: 10})
	require.NoError(t, err)
	require.Equal(t, 4, res.Created)
}

func TestSetActiveErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	on := true

	_, err := f.svc.SetActive(ctx, "", SetActiveRequest{Active: &on})
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))

	_, err = f.svc.SetActive(ctx, "rt-1", SetActiveRequest{})
	require.True(t, errutil.Is(err, errutil.StatusValidationFailed))

	_, err = f.svc.SetActive(ctx, "missing", SetActiveRequest{Active: &on})
	require.True(t, errutil.Is(err, errutil.StatusNotFound))
}
