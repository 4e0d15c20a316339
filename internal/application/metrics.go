package application

import "expvar"

// exported at /debug/vars under "usuarios"
var metrics = expvar.NewMap("usuarios")

const (
	metricCreated            = "created"
	metricUpdated            = "updated"
	metricDeleted            = "deleted"
	metricPhotosUploaded     = "photos_uploaded"
	metricBlobDeleteFailures = "blob_delete_failures"
	metricOrphanedBlobs      = "orphaned_blobs"
)
