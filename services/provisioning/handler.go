package provisioning

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(api *gin.RouterGroup, p *Provisioner) {
	api.GET("/tasks/:id/folder", p.handleListFolder)
	api.DELETE("/tasks/:id/folder", p.handleRemoveFolder)
}

func (p *Provisioner) handleListFolder(c *gin.Context) {
	out, err := p.ListFolder(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (p *Provisioner) handleRemoveFolder(c *gin.Context) {
	if err := p.RemoveFolder(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
