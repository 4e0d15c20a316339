package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/entity"
	"github.com/oksasatya/usuarios-storage-api/internal/domain/repository"
)

const usuarioColumns = `id, nombre, email, telefono, foto_url, creado_en`

type UsuarioRepository struct {
	db DBTX
}

func NewUsuarioRepository(db DBTX) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

func scanUsuario(row pgx.Row) (*entity.Usuario, error) {
	u := &entity.Usuario{}
	var foto pgtype.Text
	if err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.Telefono, &foto, &u.CreadoEn); err != nil {
		return nil, err
	}
	if foto.Valid {
		s := foto.String
		u.FotoURL = &s
	}
	return u, nil
}

func (r *UsuarioRepository) List(ctx context.Context) ([]entity.Usuario, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+usuarioColumns+`
		FROM usuarios
		ORDER BY creado_en DESC, id DESC
	`)
	if err != nil {
		return nil, translate("list usuarios", err)
	}
	defer rows.Close()

	out := make([]entity.Usuario, 0)
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, translate("scan usuario", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list usuarios", err)
	}
	return out, nil
}

func (r *UsuarioRepository) GetByID(ctx context.Context, id int64) (*entity.Usuario, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+usuarioColumns+`
		FROM usuarios
		WHERE id = $1
	`, id)
	u, err := scanUsuario(row)
	if err != nil {
		return nil, translate("get usuario", err)
	}
	return u, nil
}

// Create inserts u and fills in the store assigned ID and CreadoEn
func (r *UsuarioRepository) Create(ctx context.Context, u *entity.Usuario) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO usuarios (nombre, email, telefono, foto_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, creado_en
	`, u.Nombre, u.Email, u.Telefono, u.FotoURL)

	if err := row.Scan(&u.ID, &u.CreadoEn); err != nil {
		return translate("insert usuario", err)
	}
	return nil
}

func (r *UsuarioRepository) Update(ctx context.Context, id int64, ch repository.UsuarioChanges) (*entity.Usuario, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE usuarios
		SET nombre = $1, email = $2, telefono = $3, foto_url = COALESCE($4, foto_url)
		WHERE id = $5
		RETURNING `+usuarioColumns+`
	`, ch.Nombre, ch.Email, ch.Telefono, ch.FotoURL, id)

	u, err := scanUsuario(row)
	if err != nil {
		return nil, translate("update usuario", err)
	}
	return u, nil
}

func (r *UsuarioRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		return translate("delete usuario", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UsuarioRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return translate("ping", err)
	}
	return nil
}

var _ repository.UsuarioRepository = (*UsuarioRepository)(nil)
