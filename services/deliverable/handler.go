package deliverable

import (
	"net/http"
	"strconv"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(api *gin.RouterGroup, s *Service) {
	api.POST("/clients/:id/deliverables", s.handleCreate)
	api.GET("/clients/:id/deliverables", s.handleList)
	api.GET("/deliverables/:id/schedule", s.handleSchedule)
}

func (s *Service) handleCreate(c *gin.Context) {
	var req CreateDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	out, err := s.CreateDeliverable(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Service) handleList(c *gin.Context) {
	out, err := s.ListByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliverables": out})
}

func (s *Service) handleSchedule(c *gin.Context) {
	now := time.Now().In(s.loc)
	year, month := now.Year(), now.Month()

	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid year", err))
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			_ = c.Error(errutil.BadRequest("invalid month", err))
			return
		}
		month = time.Month(n)
	}

	out, err := s.PreviewSchedule(c.Request.Context(), c.Param("id"), year, month)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}
