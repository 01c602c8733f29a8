package models

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Conn hands out the database pool to use for a query.
type Conn func() *sqlx.DB

// Static wraps a fixed pool.
func Static(db *sqlx.DB) Conn {
	return func() *sqlx.DB { return db }
}

type UserRepository struct {
	db Conn
}

func NewUserRepository(db Conn) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id uuid.UUID) (*User, error) {
	var user User
	query := `SELECT id, username, username_lower, host, is_admin, is_disabled, created_at FROM users WHERE id = $1`
	err := r.db().Get(&user, query, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CountActiveByUsernameLower counts local accounts holding usernameLower.
// Federated accounts (host set) never make a local name unavailable.
func (r *UserRepository) CountActiveByUsernameLower(ctx context.Context, usernameLower string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM users WHERE host IS NULL AND username_lower = $1`
	if err := r.db().GetContext(ctx, &n, query, usernameLower); err != nil {
		return 0, err
	}
	return n, nil
}

type UsedUsernameRepository struct {
	db Conn
}

func NewUsedUsernameRepository(db Conn) *UsedUsernameRepository {
	return &UsedUsernameRepository{db: db}
}

func (r *UsedUsernameRepository) CountByUsername(ctx context.Context, usernameLower string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM used_usernames WHERE username = $1`
	if err := r.db().GetContext(ctx, &n, query, usernameLower); err != nil {
		return 0, err
	}
	return n, nil
}
