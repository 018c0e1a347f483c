package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository is the append-only wallet transaction ledger
type Repository interface {
	Append(ctx context.Context, tx *Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error)
	LatestByUser(ctx context.Context, userID uuid.UUID) (*Transaction, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed wallet ledger
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, tx *Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, amount, transaction_type, description, reference_id, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tx.ID, tx.UserID, tx.Amount, tx.Type, tx.Description, tx.ReferenceID, tx.BalanceAfter, tx.CreatedAt)
	return err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []*Transaction
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, user_id, amount, transaction_type, description, reference_id, balance_after, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return out, err
}

func (r *repository) LatestByUser(ctx context.Context, userID uuid.UUID) (*Transaction, error) {
	var tx Transaction
	err := r.db.GetContext(ctx, &tx, `
		SELECT id, user_id, amount, transaction_type, description, reference_id, balance_after, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}
