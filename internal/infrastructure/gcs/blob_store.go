package gcs

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/blob"
	"github.com/oksasatya/usuarios-storage-api/pkg/helpers"
)

// BlobStore stores usuario photos in a Google Cloud Storage bucket
type BlobStore struct {
	client *storage.Client
	bucket string
}

func NewBlobStore(client *storage.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

func (s *BlobStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, path, contentType, r)
}

func (s *BlobStore) Delete(ctx context.Context, path string) error {
	return helpers.DeleteObject(ctx, s.client, s.bucket, path)
}

func (s *BlobStore) PublicURL(path string) string {
	return helpers.PublicURL(s.bucket, path)
}

func (s *BlobStore) Bucket() string { return s.bucket }

func (s *BlobStore) Ping(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s: %w", s.bucket, err)
	}
	return nil
}

var _ blob.Store = (*BlobStore)(nil)
