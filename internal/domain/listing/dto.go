package listing

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// CreateListingRequest carries the seller's new listing. Auction and break
// fields are required only for their respective types.
type CreateListingRequest struct {
	Type        string `json:"type" validate:"required,listing_type"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Price       int64  `json:"price" validate:"required,gt=0"`

	PokemonName       string   `json:"pokemon_name" validate:"max=100"`
	CardNumber        string   `json:"card_number" validate:"max=20"`
	SetID             string   `json:"set_id" validate:"max=50"`
	SetName           string   `json:"set_name" validate:"max=100"`
	Series            string   `json:"series" validate:"max=100"`
	Language          string   `json:"language" validate:"max=30"`
	Condition         string   `json:"condition" validate:"omitempty,condition"`
	GradingCompany    string   `json:"grading_company" validate:"omitempty,grading_company"`
	Grade             string   `json:"grade" validate:"max=10"`
	PokemonTypes      []string `json:"pokemon_types" validate:"max=5,dive,max=20"`
	VariantTags       []string `json:"variant_tags" validate:"max=10,dive,max=40"`
	Category          string   `json:"category" validate:"max=40"`
	SealedProductType string   `json:"sealed_product_type" validate:"omitempty,sealed_type"`
	BoosterName       string   `json:"booster_name" validate:"max=100"`
	ImageURL          string   `json:"image_url" validate:"omitempty,url,max=500"`

	AuctionEndsAt *time.Time `json:"auction_ends_at"`

	TargetParticipants int        `json:"target_participants" validate:"omitempty,gt=1,lte=500"`
	MaxEntriesPerUser  int        `json:"max_entries_per_user" validate:"omitempty,gte=1,lte=50"`
	ClosesAt           *time.Time `json:"closes_at"`
}

// UpdateListingRequest merges non-nil fields into an unsold listing.
type UpdateListingRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url,max=500"`
}

// ListingResponse is the public shape of a listing.
type ListingResponse struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	IsSold      bool      `json:"is_sold"`

	Seller user.Snapshot  `json:"seller"`
	Card   CardAttributes `json:"card"`

	Auction *AuctionDetails `json:"auction,omitempty"`
	Break   *BreakDetails   `json:"break,omitempty"`
}

// ToResponse converts a listing entity to its public shape
func ToResponse(l *Listing) *ListingResponse {
	return &ListingResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
		Type:        l.Type,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		IsSold:      l.IsSold,
		Seller:      l.Seller,
		Card:        l.Card,
		Auction:     l.Auction,
		Break:       l.Break,
	}
}

// ToResponseList converts a slice of listings
func ToResponseList(listings []*Listing) []*ListingResponse {
	out := make([]*ListingResponse, len(listings))
	for i, l := range listings {
		out[i] = ToResponse(l)
	}
	return out
}

// ParseFilterState reads the query-param encoding of a filter. Unknown or
// malformed values fall back to the defaults rather than erroring.
func ParseFilterState(r *http.Request) FilterState {
	q := r.URL.Query()
	f := DefaultFilterState()

	f.Query = strings.TrimSpace(q.Get("q"))
	if s := q.Get("search_scope"); s != "" {
		f.SearchScope = SearchScope(s)
	}
	f.PokemonName = q.Get("pokemon")
	f.Language = q.Get("language")
	f.Series = q.Get("series")
	f.SetID = q.Get("set_id")

	f.Conditions = splitMulti(q.Get("conditions"))
	f.GradingCompanies = splitMulti(q.Get("grading_companies"))
	f.VariantTags = splitMulti(q.Get("variant_tags"))
	f.PokemonTypes = splitMulti(q.Get("pokemon_types"))
	f.Categories = splitMulti(q.Get("categories"))
	f.SealedProductTypes = splitMulti(q.Get("sealed_types"))
	f.BreakStatuses = splitMulti(q.Get("break_statuses"))

	if v, err := strconv.ParseInt(q.Get("price_min"), 10, 64); err == nil {
		f.PriceMin = &v
	}
	if v, err := strconv.ParseInt(q.Get("price_max"), 10, 64); err == nil {
		f.PriceMax = &v
	}

	return f
}

// ParseScope reads the app scope query param, defaulting to marketplace
func ParseScope(r *http.Request) AppScope {
	switch AppScope(r.URL.Query().Get("scope")) {
	case ScopeBreaks:
		return ScopeBreaks
	case ScopeAll:
		return ScopeAll
	default:
		return ScopeMarketplace
	}
}

// ParseSort reads the sort query param, defaulting to newest
func ParseSort(r *http.Request) SortOption {
	switch s := SortOption(r.URL.Query().Get("sort")); s {
	case SortPriceAsc, SortPriceDesc, SortEndingSoon, SortMostBids:
		return s
	default:
		return SortNewest
	}
}

func splitMulti(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
