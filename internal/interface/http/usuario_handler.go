package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/usuarios-storage-api/internal/application"
	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
	"github.com/oksasatya/usuarios-storage-api/pkg/response"
	"github.com/oksasatya/usuarios-storage-api/pkg/validation"
)

type UsuarioHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewUsuarioHandler(svc *application.Service, logger *logrus.Logger) *UsuarioHandler {
	return &UsuarioHandler{Svc: svc, Logger: logger}
}

type usuarioForm struct {
	Nombre   string `form:"nombre" binding:"required,notblank,max=100"`
	Email    string `form:"email" binding:"required,email_addr,max=255"`
	Telefono string `form:"telefono" binding:"required,notblank,max=20"`
}

type usuarioResponse struct {
	ID       int64     `json:"id"`
	Nombre   string    `json:"nombre"`
	Email    string    `json:"email"`
	Telefono string    `json:"telefono"`
	FotoURL  *string   `json:"foto_url"`
	CreadoEn time.Time `json:"creado_en"`
}

func toUsuarioResponse(u *entity.Usuario) usuarioResponse {
	return usuarioResponse{
		ID:       u.ID,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Telefono: u.Telefono,
		FotoURL:  u.FotoURL,
		CreadoEn: u.CreadoEn,
	}
}

func toUsuarioResponses(list []entity.Usuario) []usuarioResponse {
	out := make([]usuarioResponse, 0, len(list))
	for i := range list {
		out = append(out, toUsuarioResponse(&list[i]))
	}
	return out
}

func (h *UsuarioHandler) List(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUsuarioResponses(list), "usuarios", map[string]any{"count": len(list)})
}

func (h *UsuarioHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUsuarioResponse(u), "usuario", nil)
}

func (h *UsuarioHandler) Create(c *gin.Context) {
	in, closeFoto, ok := h.bindInput(c)
	if !ok {
		return
	}
	defer closeFoto()

	u, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toUsuarioResponse(u), "usuario created", nil)
}

func (h *UsuarioHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	in, closeFoto, ok := h.bindInput(c)
	if !ok {
		return
	}
	defer closeFoto()

	u, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUsuarioResponse(u), "usuario updated", nil)
}

func (h *UsuarioHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id}, "usuario deleted", nil)
}

type searchQuery struct {
	Q    string `form:"q"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

func (h *UsuarioHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid query", validation.ToDetails(err))
		return
	}
	list, err := h.Svc.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		h.Logger.WithError(err).WithField("q", q.Q).Error("usuario search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", err.Error())
		return
	}
	response.Success(c, http.StatusOK, toUsuarioResponses(list), "search results", map[string]any{"count": len(list), "q": q.Q})
}

func (h *UsuarioHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid id", validation.ToDetails(err))
		return 0, false
	}
	return id, true
}

// bindInput reads the multipart fields and the optional foto file. The returned
// func closes the opened file.
func (h *UsuarioHandler) bindInput(c *gin.Context) (application.UsuarioInput, func(), bool) {
	noop := func() {}
	var form usuarioForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", validation.ToDetails(err))
		return application.UsuarioInput{}, noop, false
	}
	in := application.UsuarioInput{Nombre: form.Nombre, Email: form.Email, Telefono: form.Telefono}

	fh, err := c.FormFile("foto")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, noop, true
	case err != nil:
		response.Error[any](c, http.StatusUnprocessableEntity, "invalid payload", map[string]string{"foto": err.Error()})
		return application.UsuarioInput{}, noop, false
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read foto", err.Error())
		return application.UsuarioInput{}, noop, false
	}
	in.Foto = &application.Photo{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}
	return in, func() { _ = f.Close() }, true
}

func (h *UsuarioHandler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUnavailable):
		response.Error[any](c, http.StatusServiceUnavailable, "database not available", err.Error())
	case errors.Is(err, application.ErrUsuarioNotFound):
		response.Error[any](c, http.StatusNotFound, "usuario not found", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusBadRequest, "email already registered", nil)
	case errors.Is(err, application.ErrInvalidImage):
		response.Error[any](c, http.StatusBadRequest, "foto must be an image", nil)
	case errors.Is(err, application.ErrPhotoUpload):
		response.Error[any](c, http.StatusBadRequest, "error uploading foto", err.Error())
	default:
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("usuario operation failed")
		response.Error[any](c, http.StatusInternalServerError, "internal server error", err.Error())
	}
}
