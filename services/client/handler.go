package client

import (
	"net/http"

	"github.com/SahilSagvekar/my-app-sub003/pkg/db/pagination"
	"github.com/SahilSagvekar/my-app-sub003/pkg/errutil"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(api *gin.RouterGroup, s *Service) {
	api.POST("/clients", s.handleCreate)
	api.GET("/clients", s.handleList)
	api.GET("/clients/:id", s.handleGet)
}

func (s *Service) handleCreate(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	out, err := s.CreateClient(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Service) handleGet(c *gin.Context) {
	out, err := s.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Service) handleList(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	clients, info, err := s.ListClients(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients, "page": info})
}
