package entity

import (
	"time"
)

// Usuario is the only aggregate of the domain: a flat contact record
// with an optional photo stored in the blob store.
//
// FotoURL, when set, is the public URL of a blob that exists in the bucket.
type Usuario struct {
	ID       int64
	Nombre   string
	Email    string
	Telefono string
	FotoURL  *string
	CreadoEn time.Time
}

// HasFoto reports whether the record points at an uploaded photo
func (u *Usuario) HasFoto() bool {
	return u != nil && u.FotoURL != nil && *u.FotoURL != ""
}
