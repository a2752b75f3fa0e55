package recurring

import (
	"errors"
	"io"
	"net/http"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(api *gin.RouterGroup, s *Service) {
	api.POST("/tasks/recurring/run", s.handleRun)

	admin := api.Group("/admin")
	admin.GET("/migrate-recurring", s.handleMigratePreview)
	admin.POST("/migrate-recurring", s.handleMigrateApply)
	admin.POST("/backfill", s.handleBackfill)
	admin.PATCH("/recurring/:id", s.handleSetActive)
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Service) handleRun(c *gin.Context) {
	var req RunRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	if c.Query("async") == "true" {
		info, err := s.EnqueueRun(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
		return
	}

	out, err := s.Run(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handleMigratePreview(c *gin.Context) {
	out, err := s.Migrate(c.Request.Context(), false)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handleMigrateApply(c *gin.Context) {
	out, err := s.Migrate(c.Request.Context(), true)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handleBackfill(c *gin.Context) {
	var req BackfillRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	if c.Query("async") == "true" {
		info, err := s.EnqueueBackfill(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
		return
	}

	out, err := s.Backfill(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handleSetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	out, err := s.SetActive(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}
