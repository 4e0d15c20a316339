package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUnavailable    = errors.New("record store unavailable")
)

// UsuarioChanges is a full replace of the text fields. FotoURL nil leaves the stored value untouched.
type UsuarioChanges struct {
	Nombre   string
	Email    string
	Telefono string
	FotoURL  *string
}

// UsuarioRepository defines the interface for usuario table operations.
// Implementations return ErrNotFound, ErrDuplicateEmail or ErrUnavailable
// (possibly wrapped) instead of driver specific errors.
type UsuarioRepository interface {
	List(ctx context.Context) ([]entity.Usuario, error)
	GetByID(ctx context.Context, id int64) (*entity.Usuario, error)
	Create(ctx context.Context, u *entity.Usuario) error
	Update(ctx context.Context, id int64, ch UsuarioChanges) (*entity.Usuario, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
