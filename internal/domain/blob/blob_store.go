package blob

import (
	"context"
	"io"
	"strings"
)

// Store is a bucket keyed by object path.
type Store interface {
	// Upload writes r at path with the given content type and returns the public URL.
	Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
	Bucket() string
	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}

// PathFromURL recovers the object path from a public URL produced by a Store:
// everything after the "/<bucket>/" segment. ok is false when the URL does not
// contain the bucket segment.
func PathFromURL(bucket, publicURL string) (string, bool) {
	if bucket == "" || publicURL == "" {
		return "", false
	}
	seg := "/" + bucket + "/"
	i := strings.LastIndex(publicURL, seg)
	if i < 0 {
		return "", false
	}
	path := publicURL[i+len(seg):]
	if path == "" {
		return "", false
	}
	return path, true
}
