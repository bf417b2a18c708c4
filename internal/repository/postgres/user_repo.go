package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUserByUsername возвращает (nil, nil), если пользователя нет —
// отличать «нет такого» от сбоя базы должен вызывающий.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT id, email, username, password_hash, role, scopes, created_at, updated_at
		FROM users WHERE username = $1`

	u := &domain.User{}
	var scopesRaw []byte
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &scopesRaw, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get user: %w", err)
	}

	// scopes лежат в JSONB: {"admin": true, "audit.read": true}
	if len(scopesRaw) > 0 {
		if err := json.Unmarshal(scopesRaw, &u.Scopes); err != nil {
			return nil, fmt.Errorf("postgres: decode user scopes: %w", err)
		}
	}
	return u, nil
}
