package bid

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// Repository is the append-only bid ledger
type Repository interface {
	Append(ctx context.Context, b *Bid) error
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]*Bid, error)
	CountByListing(ctx context.Context, listingID uuid.UUID) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed bid ledger
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type bidRow struct {
	ID             uuid.UUID `db:"id"`
	ListingID      uuid.UUID `db:"listing_id"`
	BidderID       uuid.UUID `db:"bidder_id"`
	BidderName     string    `db:"bidder_name"`
	BidderAvatar   string    `db:"bidder_avatar"`
	BidderVerified bool      `db:"bidder_verified"`
	Amount         int64     `db:"amount"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row *bidRow) toEntity() *Bid {
	return &Bid{
		ID:        row.ID,
		ListingID: row.ListingID,
		Bidder: user.Snapshot{
			ID:          row.BidderID,
			DisplayName: row.BidderName,
			AvatarURL:   row.BidderAvatar,
			Verified:    row.BidderVerified,
		},
		Amount:    row.Amount,
		CreatedAt: row.CreatedAt,
	}
}

func (r *repository) Append(ctx context.Context, b *Bid) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bids (id, listing_id, bidder_id, bidder_name, bidder_avatar, bidder_verified, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.ListingID, b.Bidder.ID, b.Bidder.DisplayName, b.Bidder.AvatarURL, b.Bidder.Verified, b.Amount, b.CreatedAt)
	return err
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]*Bid, error) {
	var rows []bidRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, listing_id, bidder_id, bidder_name, bidder_avatar, bidder_verified, amount, created_at
		FROM bids WHERE listing_id = $1 ORDER BY amount DESC, created_at ASC
	`, listingID)
	if err != nil {
		return nil, err
	}
	out := make([]*Bid, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *repository) CountByListing(ctx context.Context, listingID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bids WHERE listing_id = $1`, listingID)
	return n, err
}
