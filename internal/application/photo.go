package application

import (
	"io"
	"strings"

	"github.com/google/uuid"
)

const (
	photoDir         = "usuarios"
	defaultPhotoExt  = "jpg"
	imageContentType = "image/"
)

// Photo is an uploaded file as received from the client
type Photo struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (p *Photo) isImage() bool {
	return strings.HasPrefix(p.ContentType, imageContentType)
}

var randomName = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// photoPath derives usuarios/<8 hex>.<ext>; ext is what follows the last dot
// of the filename, or jpg when there is none.
func photoPath(filename string) string {
	ext := defaultPhotoExt
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if e := filename[i+1:]; e != "" && !strings.ContainsAny(e, `/\`) {
			ext = e
		}
	}
	return photoDir + "/" + randomName() + "." + ext
}
