package wallet

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a wallet ledger row
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypePurchase   TransactionType = "purchase"
	TransactionTypeRelease    TransactionType = "release"
)

// Transaction is an append-only ledger row. Amount is signed; BalanceAfter
// snapshots the owner's balance immediately after the row was applied, so
// the live balance must always equal the BalanceAfter of the latest row.
type Transaction struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	Amount       int64           `db:"amount" json:"amount"`
	Type         TransactionType `db:"transaction_type" json:"type"`
	Description  string          `db:"description" json:"description"`
	ReferenceID  *uuid.UUID      `db:"reference_id" json:"reference_id,omitempty"`
	BalanceAfter int64           `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
