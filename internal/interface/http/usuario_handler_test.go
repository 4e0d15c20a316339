package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/usuarios-storage-api/internal/application"
	"github.com/oksasatya/usuarios-storage-api/internal/infrastructure/memory"
	"github.com/oksasatya/usuarios-storage-api/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type photoPart struct {
	filename    string
	contentType string
	data        []byte
}

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

func newTestEngine(svc *application.Service) *gin.Engine {
	logger, _ := test.NewNullLogger()
	h := NewUsuarioHandler(svc, logger)
	s := NewSystemHandler(svc, "usuarios-storage-api")

	r := gin.New()
	r.GET("/", s.Root)
	r.GET("/health", s.Health)
	r.GET("/storage/status", s.StorageStatus)
	g := r.Group("/api/usuarios")
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return r
}

func newMemoryService() (*application.Service, *memory.BlobStore) {
	blobs := memory.NewBlobStore("StudentMgmt_FastApi")
	return application.NewService(memory.NewUsuarioRepository(), blobs, nil, nil, nil), blobs
}

func multipartBody(t *testing.T, fields map[string]string, photo *photoPart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="foto"; filename="`+photo.filename+`"`)
		h.Set("Content-Type", photo.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(photo.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(t *testing.T, r *gin.Engine, method, path string, fields map[string]string, photo *photoPart) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if fields != nil {
		body, ct := multipartBody(t, fields, photo)
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", ct)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func anaFields() map[string]string {
	return map[string]string{"nombre": "Ana Lopez", "email": "ANA@Example.com", "telefono": "555-1234"}
}

func TestUsuarioLifecycle(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, env := do(t, r, http.MethodPost, "/api/usuarios", anaFields(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "ana@example.com", created["email"])
	assert.Equal(t, "Ana Lopez", created["nombre"])
	assert.Contains(t, created, "foto_url")
	assert.Nil(t, created["foto_url"])
	assert.NotEmpty(t, created["creado_en"])
	id := int64(created["id"].(float64))
	path := "/api/usuarios/" + jsonNumber(id)

	w, env = do(t, r, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created, got)

	w, env = do(t, r, http.MethodDelete, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "usuario deleted", env.Message)

	w, env = do(t, r, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestList_EmptyStoreReturnsEmptyArray(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	for _, path := range []string{"/api/usuarios", "/api/usuarios/search?q=ana"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"data":[]`, path)
	}
}

func TestCreate_WithPhotoAndUpdate(t *testing.T) {
	svc, blobs := newMemoryService()
	r := newTestEngine(svc)

	w, env := do(t, r, http.MethodPost, "/api/usuarios", anaFields(), &photoPart{filename: "me.png", contentType: "image/png", data: []byte("png")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Regexp(t, `^memory://StudentMgmt_FastApi/usuarios/[0-9a-f]{8}\.png$`, created["foto_url"])
	assert.Equal(t, 1, blobs.Len())

	fields := anaFields()
	fields["nombre"] = "Ana María"
	w, env = do(t, r, http.MethodPut, "/api/usuarios/1", fields, &photoPart{filename: "new.jpg", contentType: "image/jpeg", data: []byte("jpg")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Ana María", updated["nombre"])
	assert.Regexp(t, `\.jpg$`, updated["foto_url"])
	assert.Equal(t, 1, blobs.Len())
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, env := do(t, r, http.MethodPost, "/api/usuarios", map[string]string{"nombre": "  ", "email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var details map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &details))
	assert.Equal(t, "must not be blank", details["nombre"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "is required", details["telefono"])
}

func TestCreate_NonImage(t *testing.T) {
	svc, blobs := newMemoryService()
	r := newTestEngine(svc)

	w, env := do(t, r, http.MethodPost, "/api/usuarios", anaFields(), &photoPart{filename: "cv.pdf", contentType: "application/pdf", data: []byte("%PDF")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "foto must be an image", env.Message)
	assert.Zero(t, blobs.Len())

	w, env = do(t, r, http.MethodGet, "/api/usuarios", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, _ := do(t, r, http.MethodPost, "/api/usuarios", anaFields(), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/usuarios", anaFields(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already registered", env.Message)
}

func TestInvalidID(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, _ := do(t, r, http.MethodGet, "/api/usuarios/abc", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w, _ = do(t, r, http.MethodDelete, "/api/usuarios/1.5", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w, _ = do(t, r, http.MethodPut, "/api/usuarios/x", anaFields(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, _ := do(t, r, http.MethodPut, "/api/usuarios/77", anaFields(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnavailable(t *testing.T) {
	r := newTestEngine(application.NewService(nil, nil, nil, nil, nil))

	for _, tc := range []struct {
		method, path string
		fields       map[string]string
	}{
		{http.MethodGet, "/api/usuarios", nil},
		{http.MethodGet, "/api/usuarios/1", nil},
		{http.MethodPost, "/api/usuarios", anaFields()},
		{http.MethodPut, "/api/usuarios/1", anaFields()},
		{http.MethodDelete, "/api/usuarios/1", nil},
	} {
		w, _ := do(t, r, tc.method, tc.path, tc.fields, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.method+" "+tc.path)
	}
}

func TestSearch_SizeValidation(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, _ := do(t, r, http.MethodGet, "/api/usuarios/search?q=ana&size=500", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/usuarios/search?q=ana", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestSystemRoutes(t *testing.T) {
	svc, _ := newMemoryService()
	r := newTestEngine(svc)

	w, env := do(t, r, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"bucket":"StudentMgmt_FastApi"`)

	w, env = do(t, r, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"database":{"status":"connected"}`)

	w, env = do(t, r, http.MethodGet, "/storage/status", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"connected"`)
}

func TestStorageStatus_NotConfiguredStill200(t *testing.T) {
	r := newTestEngine(application.NewService(nil, nil, nil, nil, nil))
	w, env := do(t, r, http.MethodGet, "/storage/status", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"error"`)
}

func TestWriteServiceError_Internal(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := &UsuarioHandler{Logger: logger}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.writeServiceError(c, errors.New("relation \"usuarios\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `relation \"usuarios\" does not exist`)
	require.NotNil(t, hook.LastEntry())
}
