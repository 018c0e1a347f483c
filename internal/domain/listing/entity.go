package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// Type represents the listing's transaction mode (matches listing_type enum)
type Type string

const (
	TypeDirectSale Type = "direct_sale"
	TypeAuction    Type = "auction"
	TypeTimedBreak Type = "timed_break"
)

// BreakStatus represents the timed-break lifecycle state
type BreakStatus string

const (
	BreakOpen                BreakStatus = "open"
	BreakFullPendingSchedule BreakStatus = "full_pending_schedule"
	BreakScheduled           BreakStatus = "scheduled"
	BreakLive                BreakStatus = "live"
	BreakCompleted           BreakStatus = "completed"
	BreakCancelled           BreakStatus = "cancelled"
	BreakExpired             BreakStatus = "expired"
)

// Terminal returns true when no further transition is allowed.
func (s BreakStatus) Terminal() bool {
	return s == BreakCompleted || s == BreakCancelled || s == BreakExpired
}

// CardAttributes describes the collectible being sold. All fields are
// display/filter metadata; none participate in transaction invariants.
type CardAttributes struct {
	PokemonName       string   `json:"pokemon_name,omitempty"`
	CardNumber        string   `json:"card_number,omitempty"`
	SetID             string   `json:"set_id,omitempty"`
	SetName           string   `json:"set_name,omitempty"`
	Series            string   `json:"series,omitempty"`
	Language          string   `json:"language,omitempty"`
	Condition         string   `json:"condition,omitempty"`
	GradingCompany    string   `json:"grading_company,omitempty"`
	Grade             string   `json:"grade,omitempty"`
	PokemonTypes      []string `json:"pokemon_types,omitempty"`
	VariantTags       []string `json:"variant_tags,omitempty"`
	Category          string   `json:"category,omitempty"`
	SealedProductType string   `json:"sealed_product_type,omitempty"`
	BoosterName       string   `json:"booster_name,omitempty"`
	ImageURL          string   `json:"image_url,omitempty"`
}

// AuctionDetails exists only on auction listings.
type AuctionDetails struct {
	// CurrentBid is 0 until the first bid and always equals the maximum
	// recorded bid amount afterwards.
	CurrentBid   int64      `json:"current_bid"`
	BidsCount    int        `json:"bids_count"`
	HighBidderID *uuid.UUID `json:"high_bidder_id,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
}

// BreakDetails exists only on timed-break listings.
type BreakDetails struct {
	TargetParticipants int `json:"target_participants"`
	// CurrentParticipants tracks entries whose status is not cancelled and
	// never exceeds TargetParticipants.
	CurrentParticipants int         `json:"current_participants"`
	Status              BreakStatus `json:"status"`
	MaxEntriesPerUser   int         `json:"max_entries_per_user"`
	ClosesAt            *time.Time  `json:"closes_at,omitempty"`
	ScheduledLiveAt     *time.Time  `json:"scheduled_live_at,omitempty"`
	LiveLink            string      `json:"live_link,omitempty"`
	LiveStartedAt       *time.Time  `json:"live_started_at,omitempty"`
	LiveEndedAt         *time.Time  `json:"live_ended_at,omitempty"`
	ResultsMedia        []string    `json:"results_media,omitempty"`
	ResultsNotes        string      `json:"results_notes,omitempty"`
}

// Listing is one selling unit. The Type tag decides which of the variant
// sub-structs is present: a direct sale carries neither, an auction carries
// Auction, a timed break carries Break. Listings are never deleted; ended
// ones keep their terminal state for history.
type Listing struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Type        Type   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Price is the sale price, auction starting price, or break entry fee,
	// in cents.
	Price  int64 `json:"price"`
	IsSold bool  `json:"is_sold"`

	// Seller is the identity snapshot taken at creation time.
	Seller user.Snapshot `json:"seller"`

	Card CardAttributes `json:"card"`

	Auction *AuctionDetails `json:"auction,omitempty"`
	Break   *BreakDetails   `json:"break,omitempty"`
}

// Clone returns a deep copy so read snapshots never alias store state.
func (l *Listing) Clone() *Listing {
	copied := *l
	copied.Card.PokemonTypes = append([]string(nil), l.Card.PokemonTypes...)
	copied.Card.VariantTags = append([]string(nil), l.Card.VariantTags...)
	if l.Auction != nil {
		a := *l.Auction
		copied.Auction = &a
	}
	if l.Break != nil {
		b := *l.Break
		b.ResultsMedia = append([]string(nil), l.Break.ResultsMedia...)
		copied.Break = &b
	}
	return &copied
}
