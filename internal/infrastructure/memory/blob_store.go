package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/blob"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob
type Object struct {
	ContentType string
	Data        []byte
}

// BlobStore is a bucket held in memory, used for local runs and tests
type BlobStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
}

func NewBlobStore(bucket string) *BlobStore {
	return &BlobStore{bucket: bucket, objects: make(map[string]Object)}
}

func (s *BlobStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[path] = Object{ContentType: contentType, Data: b}
	s.mu.Unlock()
	return s.PublicURL(path), nil
}

func (s *BlobStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("delete %s: %w", path, ErrObjectNotFound)
	}
	delete(s.objects, path)
	return nil
}

func (s *BlobStore) PublicURL(path string) string {
	return fmt.Sprintf("memory://%s/%s", s.bucket, path)
}

func (s *BlobStore) Bucket() string { return s.bucket }

func (s *BlobStore) Ping(ctx context.Context) error { return nil }

// Get returns a copy of the object at path
func (s *BlobStore) Get(path string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[path]
	if !ok {
		return Object{}, false
	}
	o.Data = append([]byte(nil), o.Data...)
	return o, true
}

// Len returns the number of stored objects
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ blob.Store = (*BlobStore)(nil)
