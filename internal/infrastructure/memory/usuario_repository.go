package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
	"github.com/oksasatya/usuarios-storage-api/internal/domain/repository"
)

// UsuarioRepository keeps usuarios in process memory. It enforces the same
// unique email constraint as the usuarios table.
type UsuarioRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]entity.Usuario
	now    func() time.Time
}

func NewUsuarioRepository() *UsuarioRepository {
	return &UsuarioRepository{rows: make(map[int64]entity.Usuario), now: time.Now}
}

func (r *UsuarioRepository) List(ctx context.Context) ([]entity.Usuario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.Usuario, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreadoEn.Equal(out[j].CreadoEn) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreadoEn.After(out[j].CreadoEn)
	})
	return out, nil
}

func (r *UsuarioRepository) GetByID(ctx context.Context, id int64) (*entity.Usuario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(u)
	return &c, nil
}

func (r *UsuarioRepository) Create(ctx context.Context, u *entity.Usuario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, 0) {
		return repository.ErrDuplicateEmail
	}
	r.nextID++
	u.ID = r.nextID
	u.CreadoEn = r.now().UTC()
	r.rows[u.ID] = clone(*u)
	return nil
}

func (r *UsuarioRepository) Update(ctx context.Context, id int64, ch repository.UsuarioChanges) (*entity.Usuario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.emailTaken(ch.Email, id) {
		return nil, repository.ErrDuplicateEmail
	}
	u.Nombre, u.Email, u.Telefono = ch.Nombre, ch.Email, ch.Telefono
	if ch.FotoURL != nil {
		s := *ch.FotoURL
		u.FotoURL = &s
	}
	r.rows[id] = u
	c := clone(u)
	return &c, nil
}

func (r *UsuarioRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *UsuarioRepository) Ping(ctx context.Context) error { return nil }

func (r *UsuarioRepository) emailTaken(email string, exceptID int64) bool {
	for id, u := range r.rows {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u entity.Usuario) entity.Usuario {
	if u.FotoURL != nil {
		s := *u.FotoURL
		u.FotoURL = &s
	}
	return u
}

var _ repository.UsuarioRepository = (*UsuarioRepository)(nil)
