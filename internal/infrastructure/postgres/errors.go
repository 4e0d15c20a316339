package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/usuarios-storage-api/internal/domain/repository"
)

// isUniqueViolation checks for SQLSTATE 23505 (unique_violation)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}

func isUnavailable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, pgx.ErrTxClosed) || strings.Contains(err.Error(), "closed pool")
}

// translate maps driver errors to repository sentinels, keeping the driver message
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return repository.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicateEmail)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
