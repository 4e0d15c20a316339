package application

import (
	"context"
	"time"
)

const (
	StatusConnected = "connected"
	StatusError     = "error"
	StatusDisabled  = "not_configured"

	probeTimeout = 3 * time.Second
)

// ComponentStatus is the reachability of one external store
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthReport struct {
	Status   string          `json:"status"`
	Database ComponentStatus `json:"database"`
	Storage  ComponentStatus `json:"storage"`
}

type StorageStatus struct {
	Status  string `json:"status"`
	Bucket  string `json:"bucket"`
	Message string `json:"message"`
}

// Health reports liveness plus database and bucket reachability. The process
// itself is always "ok" when it can answer.
func (s *Service) Health(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	rep := HealthReport{Status: "ok"}
	switch {
	case s.Repo == nil:
		rep.Database = ComponentStatus{Status: StatusDisabled}
	default:
		if err := s.Repo.Ping(ctx); err != nil {
			rep.Database = ComponentStatus{Status: StatusError, Message: err.Error()}
		} else {
			rep.Database = ComponentStatus{Status: StatusConnected}
		}
	}
	st := s.StorageStatus(ctx)
	rep.Storage = ComponentStatus{Status: st.Status}
	if st.Status != StatusConnected {
		rep.Storage.Message = st.Message
	}
	return rep
}

func (s *Service) StorageStatus(ctx context.Context) StorageStatus {
	if s.Blobs == nil {
		return StorageStatus{Status: StatusError, Message: "storage not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	bucket := s.Blobs.Bucket()
	if err := s.Blobs.Ping(ctx); err != nil {
		return StorageStatus{Status: StatusError, Bucket: bucket, Message: "bucket unreachable: " + err.Error()}
	}
	return StorageStatus{Status: StatusConnected, Bucket: bucket, Message: "storage connection ok"}
}

// BucketName returns the configured bucket, empty when storage is not configured
func (s *Service) BucketName() string {
	if s.Blobs == nil {
		return ""
	}
	return s.Blobs.Bucket()
}
