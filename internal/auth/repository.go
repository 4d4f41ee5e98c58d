package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository looks up credential rows.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	const query = `
		SELECT id, username, full_name, email, role, password_hash, is_active
		FROM users
		WHERE username = $1`

	var acc Account
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&acc.ID, &acc.Username, &acc.FullName, &acc.Email, &acc.Role, &acc.PasswordHash, &acc.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &acc, nil
}
