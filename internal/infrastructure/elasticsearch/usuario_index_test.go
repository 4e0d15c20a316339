package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newTestIndex(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*UsuarioIndex, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: string(b)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewUsuarioIndex(es, "usuarios"), &calls
}

func TestIndex_PutsDocumentByID(t *testing.T) {
	x, calls := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	u := &entity.Usuario{ID: 12, Nombre: "Ana", Email: "ana@example.com", Telefono: "555", CreadoEn: time.Now().UTC()}
	require.NoError(t, x.Index(context.Background(), u))

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "/usuarios/_doc/12", c.path)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.body), &doc))
	assert.Equal(t, "ana@example.com", doc["email"])
	assert.Nil(t, doc["foto_url"])
}

func TestRemove_IgnoresMissingDocument(t *testing.T) {
	x, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})
	assert.NoError(t, x.Remove(context.Background(), 3))
}

func TestSearch_DecodesHits(t *testing.T) {
	x, calls := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"1","_source":{"id":1,"nombre":"Ana","email":"ana@example.com","telefono":"555","foto_url":null,"creado_en":"2024-01-02T03:04:05Z"}}]}}`))
	})

	got, err := x.Search(context.Background(), "ana", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "Ana", got[0].Nombre)
	assert.Nil(t, got[0].FotoURL)
	assert.Equal(t, "/usuarios/_search", (*calls)[0].path)
	assert.Contains(t, (*calls)[0].body, `"multi_match"`)
}

func TestSearch_ErrorStatus(t *testing.T) {
	x, _ := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})
	_, err := x.Search(context.Background(), "ana", 10)
	assert.Error(t, err)
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	x, calls := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	require.NoError(t, x.EnsureIndex(context.Background()))
	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPut, (*calls)[1].method)
	assert.Contains(t, (*calls)[1].body, `"creado_en"`)
}

func TestEnsureIndex_ExistingIsNoop(t *testing.T) {
	x, calls := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, x.EnsureIndex(context.Background()))
	assert.Len(t, *calls, 1)
}
