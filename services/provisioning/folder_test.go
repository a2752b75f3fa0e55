package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"
	"github.com/SahilSagvekar/my-app-sub003/pkg/middleware"
	"github.com/SahilSagvekar/my-app-sub003/services/task"
)

const testFolder = "Acme Media/outputs/AcmeMedia_09-01-2025_SF1/"

func TestListFolder(t *testing.T) {
	st := &fakeStorage{objects: map[string][]string{
		testFolder: {testFolder, testFolder + "thumbnails/", testFolder + "tiles/", testFolder + "music-license/"},
	}}
	p, db := setup(t, st, &fakeEnqueuer{})
	row := seedTask(t, db, "t1", "AcmeMedia_09-01-2025_SF1")
	require.NoError(t, p.Provision(context.Background(), row, "Acme Media"))

	out, err := p.ListFolder(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, testFolder, out.Folder)
	require.Equal(t, task.FolderProvisioned, out.FolderStatus)
	require.Len(t, out.Objects, 4)
}

func TestListFolderErrors(t *testing.T) {
	st := &fakeStorage{}
	p, db := setup(t, st, &fakeEnqueuer{})
	seedTask(t, db, "t1", "X")

	_, err := p.ListFolder(context.Background(), "")
	require.True(t, errutil.Is(err, errutil.StatusBadRequest))

	_, err = p.ListFolder(context.Background(), "missing")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	// never provisioned
	_, err = p.ListFolder(context.Background(), "t1")
	require.True(t, errutil.Is(err, errutil.StatusNotFound))

	require.NoError(t, db.Model(&task.Task{ID: "t1"}).Update("output_folder_id", testFolder).Error)
	st.listErr = errors.New("s3 down")
	_, err = p.ListFolder(context.Background(), "t1")
	require.True(t, errutil.Is(err, errutil.StatusServiceUnavailable))
}

func TestRemoveFolderResetsStatus(t *testing.T) {
	st := &fakeStorage{}
	p, db := setup(t, st, &fakeEnqueuer{})
	row := seedTask(t, db, "t1", "AcmeMedia_09-01-2025_SF1")
	require.NoError(t, p.Provision(context.Background(), row, "Acme Media"))

	require.NoError(t, p.RemoveFolder(context.Background(), "t1"))
	require.Equal(t, []string{testFolder}, st.deleted)

	got := loadTask(t, db, "t1")
	require.Equal(t, task.FolderPending, got.FolderStatus)
	require.Empty(t, got.OutputFolderID)
}

func TestFolderRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := &fakeStorage{objects: map[string][]string{testFolder: {testFolder}}}
	p, db := setup(t, st, &fakeEnqueuer{})
	row := seedTask(t, db, "t1", "AcmeMedia_09-01-2025_SF1")
	require.NoError(t, p.Provision(context.Background(), row, "Acme Media"))

	r := gin.New()
	r.Use(middleware.Error())
	RegisterRoutes(r.Group("/api"), p)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/t1/folder", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listing FolderListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Equal(t, []string{testFolder}, listing.Objects)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/tasks/t1/folder", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks/t1/folder", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
