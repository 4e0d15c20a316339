package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/usuarios-storage-api/internal/interface/http"
)

// SystemModule serves /, /health and /storage/status; it is mounted at the engine root
type SystemModule struct {
	Handler *handlers.SystemHandler
}

func NewSystemModule(h *handlers.SystemHandler) *SystemModule {
	return &SystemModule{Handler: h}
}

func (m *SystemModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", m.Handler.Root)
	rg.GET("/health", m.Handler.Health)
	rg.GET("/storage/status", m.Handler.StorageStatus)
}
