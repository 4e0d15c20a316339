package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

type usuarioDoc struct {
	ID       int64     `json:"id"`
	Nombre   string    `json:"nombre"`
	Email    string    `json:"email"`
	Telefono string    `json:"telefono"`
	FotoURL  *string   `json:"foto_url"`
	CreadoEn time.Time `json:"creado_en"`
}

// UsuarioIndex mirrors usuarios into an Elasticsearch index for lookup by text
type UsuarioIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewUsuarioIndex(es *elasticsearch.Client, index string) *UsuarioIndex {
	return &UsuarioIndex{es: es, index: index}
}

func (x *UsuarioIndex) Index(ctx context.Context, u *entity.Usuario) error {
	b, err := json.Marshal(usuarioDoc{
		ID:       u.ID,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Telefono: u.Telefono,
		FotoURL:  u.FotoURL,
		CreadoEn: u.CreadoEn,
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: strconv.FormatInt(u.ID, 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index usuario %d: %s", u.ID, res.Status())
	}
	return nil
}

func (x *UsuarioIndex) Remove(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// a missing document is already removed
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("remove usuario %d: %s", id, res.Status())
	}
	return nil
}

// Search performs a multi_match on nombre, email and telefono.
func (x *UsuarioIndex) Search(ctx context.Context, q string, size int) ([]entity.Usuario, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "nombre", "telefono"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search usuarios: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source usuarioDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Usuario, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		d := h.Source
		out = append(out, entity.Usuario{
			ID:       d.ID,
			Nombre:   d.Nombre,
			Email:    d.Email,
			Telefono: d.Telefono,
			FotoURL:  d.FotoURL,
			CreadoEn: d.CreadoEn,
		})
	}
	return out, nil
}

const usuariosMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "long"},
      "nombre":    {"type": "text"},
      "email":     {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "telefono":  {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "foto_url":  {"type": "keyword", "index": false},
      "creado_en": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *UsuarioIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.index}}.Do(c, x.es)
	if err != nil {
		return err
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: x.index, Body: strings.NewReader(usuariosMapping)}.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// 400 resource_already_exists when another instance won the race
	if res.IsError() && res.StatusCode != 400 {
		return fmt.Errorf("create index %s: %s", x.index, res.Status())
	}
	return nil
}
