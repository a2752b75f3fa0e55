package httpapi

import (
	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/health"
	"github.com/SahilSagvekar/my-app-sub003/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	health.Module,
	fx.Provide(NewEngine, NewAPIGroup),
	fx.Invoke(registerHealthEndpoint),
)

func NewEngine(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Error())
	return r
}

// NewAPIGroup is the /api group every service registers its routes on.
func NewAPIGroup(r *gin.Engine) *gin.RouterGroup {
	return r.Group("/api")
}

func registerHealthEndpoint(r *gin.Engine, h health.HealthService) {
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}
