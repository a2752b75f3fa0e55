package health

import (
	"context"
	"net/http"
	"time"

	"github.com/SahilSagvekar/my-app-sub003/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("health", fx.Provide(ProvideHealth))

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

type Dependency struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Deps    []Dependency `json:"deps,omitempty"`
}

type HealthService interface {
	Liveness(c *gin.Context)
	Readiness(c *gin.Context)
}

type health struct {
	checks []check
}

type check struct {
	name string
	ping func(ctx context.Context) error
}

type HealthParams struct {
	fx.In
	DB      *gorm.DB        `optional:"true"`
	Redis   *redis.Client   `optional:"true"`
	Storage storage.Storage `optional:"true"`
}

func ProvideHealth(p HealthParams) HealthService {
	h := &health{}

	if p.DB != nil {
		h.checks = append(h.checks, check{name: p.DB.Name(), ping: func(ctx context.Context) error {
			sql, err := p.DB.DB()
			if err != nil {
				return err
			}
			return sql.PingContext(ctx)
		}})
	}
	if p.Redis != nil {
		h.checks = append(h.checks, check{name: "redis", ping: func(ctx context.Context) error {
			return p.Redis.Ping(ctx).Err()
		}})
	}
	if p.Storage != nil {
		h.checks = append(h.checks, check{name: "storage", ping: p.Storage.Ping})
	}

	return h
}

func (h *health) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, &Health{
		Status:  statusHealthy,
		Message: "OK",
	})
}

// Readiness pings every dependency and answers 503 when any is down.
func (h *health) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	this := &Health{
		Status:  statusHealthy,
		Message: "OK",
		Deps:    make([]Dependency, 0, len(h.checks)),
	}

	for _, chk := range h.checks {
		dep := Dependency{Name: chk.name, Status: statusHealthy, Message: "OK"}
		if err := chk.ping(ctx); err != nil {
			dep.Status = statusUnhealthy
			dep.Message = err.Error()
			this.Status = statusUnhealthy
			this.Message = "dependency unavailable"
		}
		this.Deps = append(this.Deps, dep)
	}

	code := http.StatusOK
	if this.Status != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, this)
}
