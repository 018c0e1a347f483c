package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines user data access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Upsert(ctx context.Context, u *User) error
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	SetFields(ctx context.Context, id uuid.UUID, fields UpdateFields) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, email, display_name, avatar_url, role, verified, is_banned, balance, created_at, updated_at
		FROM users WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) Upsert(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, avatar_url, role, verified, is_banned, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			verified = EXCLUDED.verified,
			is_banned = EXCLUDED.is_banned,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.DisplayName, u.AvatarURL, u.Role, u.Verified, u.IsBanned, u.Balance, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *repository) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `
		UPDATE users SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`, id, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (r *repository) SetFields(ctx context.Context, id uuid.UUID, fields UpdateFields) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if fields.DisplayName != nil {
		u.DisplayName = *fields.DisplayName
	}
	if fields.AvatarURL != nil {
		u.AvatarURL = *fields.AvatarURL
	}
	if fields.Role != nil {
		u.Role = *fields.Role
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET display_name = $2, avatar_url = $3, role = $4, updated_at = NOW()
		WHERE id = $1
	`, id, u.DisplayName, u.AvatarURL, u.Role)
	return err
}
