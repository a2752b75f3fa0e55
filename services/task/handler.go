package task

import (
	"net/http"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(api *gin.RouterGroup, s *Service) {
	api.POST("/tasks", s.handleCreate)
	api.GET("/tasks", s.handleList)
	api.GET("/tasks/:id", s.handleGet)
	api.PATCH("/tasks/:id/status", s.handleUpdateStatus)
}

func (s *Service) handleCreate(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	out, err := s.CreateTask(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Service) handleList(c *gin.Context) {
	var req ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query", err))
		return
	}

	tasks, info, err := s.ListTasks(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "page": info})
}

func (s *Service) handleGet(c *gin.Context) {
	out, err := s.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handleUpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	out, err := s.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}
