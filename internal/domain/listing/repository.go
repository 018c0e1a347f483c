package listing

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// Repository defines catalog data access. Implementations must make
// MarkSold a compare-and-set so a listing can be sold at most once.
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
	Update(ctx context.Context, l *Listing) error
	List(ctx context.Context) ([]*Listing, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Listing, error)
	MarkSold(ctx context.Context, id uuid.UUID) error
	UnmarkSold(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed catalog repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// listingRow is the flat DB representation; the variant entity is assembled
// from it based on listing_type.
type listingRow struct {
	ID          uuid.UUID `db:"id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	Type        string    `db:"listing_type"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Price       int64     `db:"price"`
	IsSold      bool      `db:"is_sold"`

	SellerID       uuid.UUID `db:"seller_id"`
	SellerName     string    `db:"seller_name"`
	SellerAvatar   string    `db:"seller_avatar"`
	SellerVerified bool      `db:"seller_verified"`

	PokemonName       sql.NullString `db:"pokemon_name"`
	CardNumber        sql.NullString `db:"card_number"`
	SetID             sql.NullString `db:"set_id"`
	SetName           sql.NullString `db:"set_name"`
	Series            sql.NullString `db:"series"`
	Language          sql.NullString `db:"language"`
	Condition         sql.NullString `db:"condition"`
	GradingCompany    sql.NullString `db:"grading_company"`
	Grade             sql.NullString `db:"grade"`
	PokemonTypes      pq.StringArray `db:"pokemon_types"`
	VariantTags       pq.StringArray `db:"variant_tags"`
	Category          sql.NullString `db:"category"`
	SealedProductType sql.NullString `db:"sealed_product_type"`
	BoosterName       sql.NullString `db:"booster_name"`
	ImageURL          sql.NullString `db:"image_url"`

	CurrentBid   sql.NullInt64  `db:"current_bid"`
	BidsCount    sql.NullInt32  `db:"bids_count"`
	HighBidderID uuid.NullUUID  `db:"high_bidder_id"`
	EndsAt       sql.NullTime   `db:"ends_at"`

	TargetParticipants  sql.NullInt32  `db:"target_participants"`
	CurrentParticipants sql.NullInt32  `db:"current_participants"`
	BreakStatus         sql.NullString `db:"break_status"`
	MaxEntriesPerUser   sql.NullInt32  `db:"max_entries_per_user"`
	ClosesAt            sql.NullTime   `db:"closes_at"`
	ScheduledLiveAt     sql.NullTime   `db:"scheduled_live_at"`
	LiveLink            sql.NullString `db:"live_link"`
	LiveStartedAt       sql.NullTime   `db:"live_started_at"`
	LiveEndedAt         sql.NullTime   `db:"live_ended_at"`
	ResultsMedia        pq.StringArray `db:"results_media"`
	ResultsNotes        sql.NullString `db:"results_notes"`
}

const listingColumns = `
	id, created_at, updated_at, listing_type, title, description, price, is_sold,
	seller_id, seller_name, seller_avatar, seller_verified,
	pokemon_name, card_number, set_id, set_name, series, language, condition,
	grading_company, grade, pokemon_types, variant_tags, category,
	sealed_product_type, booster_name, image_url,
	current_bid, bids_count, high_bidder_id, ends_at,
	target_participants, current_participants, break_status, max_entries_per_user,
	closes_at, scheduled_live_at, live_link, live_started_at, live_ended_at,
	results_media, results_notes
`

func (r *repository) Create(ctx context.Context, l *Listing) error {
	row := rowFromEntity(l)
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES (
			:id, :created_at, :updated_at, :listing_type, :title, :description, :price, :is_sold,
			:seller_id, :seller_name, :seller_avatar, :seller_verified,
			:pokemon_name, :card_number, :set_id, :set_name, :series, :language, :condition,
			:grading_company, :grade, :pokemon_types, :variant_tags, :category,
			:sealed_product_type, :booster_name, :image_url,
			:current_bid, :bids_count, :high_bidder_id, :ends_at,
			:target_participants, :current_participants, :break_status, :max_entries_per_user,
			:closes_at, :scheduled_live_at, :live_link, :live_started_at, :live_ended_at,
			:results_media, :results_notes
		)
	`, row)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var row listingRow
	err := r.db.GetContext(ctx, &row, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	l.UpdatedAt = time.Now()
	row := rowFromEntity(l)
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE listings SET
			updated_at = :updated_at, title = :title, description = :description,
			price = :price, is_sold = :is_sold,
			pokemon_name = :pokemon_name, card_number = :card_number, set_id = :set_id,
			set_name = :set_name, series = :series, language = :language,
			condition = :condition, grading_company = :grading_company, grade = :grade,
			pokemon_types = :pokemon_types, variant_tags = :variant_tags,
			category = :category, sealed_product_type = :sealed_product_type,
			booster_name = :booster_name, image_url = :image_url,
			current_bid = :current_bid, bids_count = :bids_count,
			high_bidder_id = :high_bidder_id, ends_at = :ends_at,
			target_participants = :target_participants,
			current_participants = :current_participants, break_status = :break_status,
			max_entries_per_user = :max_entries_per_user, closes_at = :closes_at,
			scheduled_live_at = :scheduled_live_at, live_link = :live_link,
			live_started_at = :live_started_at, live_ended_at = :live_ended_at,
			results_media = :results_media, results_notes = :results_notes
		WHERE id = :id
	`, row)
	return err
}

func (r *repository) List(ctx context.Context) ([]*Listing, error) {
	var rows []listingRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	out := make([]*Listing, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Listing, error) {
	var rows []listingRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+listingColumns+` FROM listings WHERE seller_id = $1 ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]*Listing, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *repository) MarkSold(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET is_sold = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_sold
	`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Distinguish missing from already sold
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadySold
	}
	return nil
}

func (r *repository) UnmarkSold(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE listings SET is_sold = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	return err
}

func rowFromEntity(l *Listing) *listingRow {
	row := &listingRow{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		Type:        string(l.Type),
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		IsSold:      l.IsSold,

		SellerID:       l.Seller.ID,
		SellerName:     l.Seller.DisplayName,
		SellerAvatar:   l.Seller.AvatarURL,
		SellerVerified: l.Seller.Verified,

		PokemonName:       nullString(l.Card.PokemonName),
		CardNumber:        nullString(l.Card.CardNumber),
		SetID:             nullString(l.Card.SetID),
		SetName:           nullString(l.Card.SetName),
		Series:            nullString(l.Card.Series),
		Language:          nullString(l.Card.Language),
		Condition:         nullString(l.Card.Condition),
		GradingCompany:    nullString(l.Card.GradingCompany),
		Grade:             nullString(l.Card.Grade),
		PokemonTypes:      pq.StringArray(l.Card.PokemonTypes),
		VariantTags:       pq.StringArray(l.Card.VariantTags),
		Category:          nullString(l.Card.Category),
		SealedProductType: nullString(l.Card.SealedProductType),
		BoosterName:       nullString(l.Card.BoosterName),
		ImageURL:          nullString(l.Card.ImageURL),
	}

	if l.Auction != nil {
		row.CurrentBid = sql.NullInt64{Int64: l.Auction.CurrentBid, Valid: true}
		row.BidsCount = sql.NullInt32{Int32: int32(l.Auction.BidsCount), Valid: true}
		if l.Auction.HighBidderID != nil {
			row.HighBidderID = uuid.NullUUID{UUID: *l.Auction.HighBidderID, Valid: true}
		}
		row.EndsAt = nullTime(l.Auction.EndsAt)
	}

	if l.Break != nil {
		row.TargetParticipants = sql.NullInt32{Int32: int32(l.Break.TargetParticipants), Valid: true}
		row.CurrentParticipants = sql.NullInt32{Int32: int32(l.Break.CurrentParticipants), Valid: true}
		row.BreakStatus = nullString(string(l.Break.Status))
		row.MaxEntriesPerUser = sql.NullInt32{Int32: int32(l.Break.MaxEntriesPerUser), Valid: true}
		row.ClosesAt = nullTime(l.Break.ClosesAt)
		row.ScheduledLiveAt = nullTime(l.Break.ScheduledLiveAt)
		row.LiveLink = nullString(l.Break.LiveLink)
		row.LiveStartedAt = nullTime(l.Break.LiveStartedAt)
		row.LiveEndedAt = nullTime(l.Break.LiveEndedAt)
		row.ResultsMedia = pq.StringArray(l.Break.ResultsMedia)
		row.ResultsNotes = nullString(l.Break.ResultsNotes)
	}

	return row
}

func (row *listingRow) toEntity() *Listing {
	l := &Listing{
		ID:          row.ID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Type:        Type(row.Type),
		Title:       row.Title,
		Description: row.Description,
		Price:       row.Price,
		IsSold:      row.IsSold,
		Seller: user.Snapshot{
			ID:          row.SellerID,
			DisplayName: row.SellerName,
			AvatarURL:   row.SellerAvatar,
			Verified:    row.SellerVerified,
		},
		Card: CardAttributes{
			PokemonName:       row.PokemonName.String,
			CardNumber:        row.CardNumber.String,
			SetID:             row.SetID.String,
			SetName:           row.SetName.String,
			Series:            row.Series.String,
			Language:          row.Language.String,
			Condition:         row.Condition.String,
			GradingCompany:    row.GradingCompany.String,
			Grade:             row.Grade.String,
			PokemonTypes:      []string(row.PokemonTypes),
			VariantTags:       []string(row.VariantTags),
			Category:          row.Category.String,
			SealedProductType: row.SealedProductType.String,
			BoosterName:       row.BoosterName.String,
			ImageURL:          row.ImageURL.String,
		},
	}

	switch l.Type {
	case TypeAuction:
		a := &AuctionDetails{
			CurrentBid: row.CurrentBid.Int64,
			BidsCount:  int(row.BidsCount.Int32),
		}
		if row.HighBidderID.Valid {
			id := row.HighBidderID.UUID
			a.HighBidderID = &id
		}
		a.EndsAt = timePtr(row.EndsAt)
		l.Auction = a
	case TypeTimedBreak:
		b := &BreakDetails{
			TargetParticipants:  int(row.TargetParticipants.Int32),
			CurrentParticipants: int(row.CurrentParticipants.Int32),
			Status:              BreakStatus(row.BreakStatus.String),
			MaxEntriesPerUser:   int(row.MaxEntriesPerUser.Int32),
			LiveLink:            row.LiveLink.String,
			ResultsMedia:        []string(row.ResultsMedia),
			ResultsNotes:        row.ResultsNotes.String,
		}
		b.ClosesAt = timePtr(row.ClosesAt)
		b.ScheduledLiveAt = timePtr(row.ScheduledLiveAt)
		b.LiveStartedAt = timePtr(row.LiveStartedAt)
		b.LiveEndedAt = timePtr(row.LiveEndedAt)
		l.Break = b
	}

	return l
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
