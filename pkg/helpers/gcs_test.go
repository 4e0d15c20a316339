package helpers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/blob"
)

func TestPublicURL(t *testing.T) {
	assert.Equal(t,
		"https://storage.googleapis.com/StudentMgmt_FastApi/usuarios/ab12cd34.jpg",
		PublicURL("StudentMgmt_FastApi", "usuarios/ab12cd34.jpg"))
}

func TestPublicURL_RoundTripsThroughPathFromURL(t *testing.T) {
	path, ok := blob.PathFromURL("StudentMgmt_FastApi", PublicURL("StudentMgmt_FastApi", "usuarios/ab12cd34.jpg"))
	require.True(t, ok)
	assert.Equal(t, "usuarios/ab12cd34.jpg", path)
}

type recordingWriter struct {
	bytes.Buffer
	calls *[]string
}

func (w *recordingWriter) Close() error {
	*w.calls = append(*w.calls, "close")
	return nil
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestCopyOrAbort_CancelsBeforeCloseOnReadError(t *testing.T) {
	var calls []string
	w := &recordingWriter{calls: &calls}
	cancel := func() { calls = append(calls, "cancel") }
	readErr := errors.New("connection reset")

	err := copyOrAbort(w, cancel, io.MultiReader(bytes.NewReader([]byte("partial")), failingReader{readErr}))
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, []string{"cancel", "close"}, calls)
}

func TestCopyOrAbort_ClosesWithoutCancelOnSuccess(t *testing.T) {
	var calls []string
	w := &recordingWriter{calls: &calls}
	cancel := func() { calls = append(calls, "cancel") }

	require.NoError(t, copyOrAbort(w, context.CancelFunc(cancel), bytes.NewReader([]byte("png"))))
	assert.Equal(t, []string{"close"}, calls)
	assert.Equal(t, "png", w.String())
}
