package application

import (
	"errors"
	"fmt"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/repository"
)

var (
	ErrUnavailable     = errors.New("record store unavailable")
	ErrUsuarioNotFound = errors.New("usuario not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidImage    = errors.New("file must be an image")
	ErrPhotoUpload     = errors.New("photo upload failed")
)

// fromRepo translates record store errors into service errors
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, repository.ErrNotFound):
		return ErrUsuarioNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailTaken
	default:
		return err
	}
}
