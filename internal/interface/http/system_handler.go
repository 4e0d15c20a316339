package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/usuarios-storage-api/internal/application"
	"github.com/oksasatya/usuarios-storage-api/pkg/response"
)

// SystemHandler serves the unauthenticated service metadata and probe routes
type SystemHandler struct {
	Svc     *application.Service
	AppName string
}

func NewSystemHandler(svc *application.Service, appName string) *SystemHandler {
	return &SystemHandler{Svc: svc, AppName: appName}
}

func (h *SystemHandler) Root(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"name":   h.AppName,
		"bucket": h.Svc.BucketName(),
		"endpoints": gin.H{
			"list":           "GET /api/usuarios",
			"get":            "GET /api/usuarios/{id}",
			"create":         "POST /api/usuarios",
			"update":         "PUT /api/usuarios/{id}",
			"delete":         "DELETE /api/usuarios/{id}",
			"search":         "GET /api/usuarios/search?q=",
			"health":         "GET /health",
			"storage_status": "GET /storage/status",
		},
	}, "usuarios API running", nil)
}

func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Svc.Health(c.Request.Context()), "ok", nil)
}

// StorageStatus always answers 200; the bucket state is in the body
func (h *SystemHandler) StorageStatus(c *gin.Context) {
	st := h.Svc.StorageStatus(c.Request.Context())
	response.Success(c, http.StatusOK, st, st.Message, nil)
}
