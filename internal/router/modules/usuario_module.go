package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/usuarios-storage-api/internal/container"
	handlers "github.com/oksasatya/usuarios-storage-api/internal/interface/http"
	"github.com/oksasatya/usuarios-storage-api/internal/interface/middleware"
)

// UsuarioModule wires the usuario CRUD handlers under /api/usuarios.
// Reads and writes have separate per-IP budgets.
type UsuarioModule struct {
	Handler *handlers.UsuarioHandler
}

func NewUsuarioModule(h *handlers.UsuarioHandler) *UsuarioModule {
	return &UsuarioModule{Handler: h}
}

func (m *UsuarioModule) Register(rg *gin.RouterGroup) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()
	if !cfg.RateLimitEnabled {
		rdb = nil
	}
	allow := middleware.AllowIf(cfg.RateLimitAllowPrivate, middleware.AllowPrivateIP())
	logger := container.GetLogger()

	reads := middleware.RateLimit(rdb, cfg.RateLimitReads, time.Minute, middleware.KeyByIPAndScope("reads"), allow, logger)
	writes := middleware.RateLimit(rdb, cfg.RateLimitWrites, time.Minute, middleware.KeyByIPAndScope("writes"), allow, logger)

	g := rg.Group("/usuarios")
	{
		g.GET("", reads, m.Handler.List)
		g.GET("/search", reads, m.Handler.Search)
		g.GET("/:id", reads, m.Handler.Get)
		g.POST("", writes, m.Handler.Create)
		g.PUT("/:id", writes, m.Handler.Update)
		g.DELETE("/:id", writes, m.Handler.Delete)
	}
}
