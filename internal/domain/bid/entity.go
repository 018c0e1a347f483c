package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// Bid is an immutable ledger row. Amounts per listing are strictly
// increasing in insertion order.
type Bid struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	ListingID uuid.UUID     `db:"listing_id" json:"listing_id"`
	Bidder    user.Snapshot `json:"bidder"`
	Amount    int64         `db:"amount" json:"amount"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
