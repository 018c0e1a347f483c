package listing

import (
	"sort"
	"strings"
	"time"
)

// AppScope selects which listing types a discovery surface shows.
type AppScope string

const (
	ScopeMarketplace AppScope = "marketplace" // everything except timed breaks
	ScopeBreaks      AppScope = "breaks"      // timed breaks only
	ScopeAll         AppScope = "all"         // no type filter
)

// SearchScope restricts free-text search to one field.
type SearchScope string

const (
	SearchAll     SearchScope = "all"
	SearchTitle   SearchScope = "title"
	SearchPokemon SearchScope = "pokemon"
	SearchSet     SearchScope = "set"
	SearchSeller  SearchScope = "seller"
	SearchBooster SearchScope = "booster"
)

// SortOption orders the projected catalog.
type SortOption string

const (
	SortNewest     SortOption = "newest"
	SortPriceAsc   SortOption = "price_asc"
	SortPriceDesc  SortOption = "price_desc"
	SortEndingSoon SortOption = "ending_soon"
	SortMostBids   SortOption = "most_bids"
)

// FilterState is the discovery filter configuration. The zero value of
// every field means "not filtering on this dimension"; DefaultFilterState
// is the reset shape.
type FilterState struct {
	Query       string
	SearchScope SearchScope

	// Equality filters, applied only when set.
	PokemonName string
	Language    string
	Series      string
	SetID       string

	// Multi-select facets; values within a facet are ORed, facets are ANDed.
	Conditions         []string
	GradingCompanies   []string
	VariantTags        []string
	PokemonTypes       []string
	Categories         []string
	SealedProductTypes []string
	BreakStatuses      []string

	// Inclusive price bounds in cents; either end optional.
	PriceMin *int64
	PriceMax *int64
}

// DefaultFilterState returns the empty filter configuration.
func DefaultFilterState() FilterState {
	return FilterState{SearchScope: SearchAll}
}

// Project derives the filtered, faceted, sorted discovery view of the
// catalog. Pure and deterministic: identical inputs always yield the same
// ordered slice, and ties keep the input order (stable sort).
func Project(catalog []*Listing, scope AppScope, f FilterState, sortBy SortOption) []*Listing {
	out := make([]*Listing, 0, len(catalog))
	for _, l := range catalog {
		if !matchScope(l, scope) {
			continue
		}
		if !matchQuery(l, f) {
			continue
		}
		if !matchEquality(l, f) {
			continue
		}
		if !matchFacets(l, f) {
			continue
		}
		if !matchPrice(l, f) {
			continue
		}
		out = append(out, l)
	}
	sortListings(out, sortBy)
	return out
}

func matchScope(l *Listing, scope AppScope) bool {
	switch scope {
	case ScopeMarketplace:
		return l.Type != TypeTimedBreak
	case ScopeBreaks:
		return l.Type == TypeTimedBreak
	default:
		return true
	}
}

func matchQuery(l *Listing, f FilterState) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}

	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), q)
	}

	switch f.SearchScope {
	case SearchTitle:
		return contains(l.Title)
	case SearchPokemon:
		return contains(l.Card.PokemonName)
	case SearchSet:
		return contains(l.Card.SetName) || contains(l.Card.Series)
	case SearchSeller:
		return contains(l.Seller.DisplayName)
	case SearchBooster:
		return contains(l.Card.BoosterName)
	default:
		return contains(l.Title) ||
			contains(l.Card.PokemonName) ||
			contains(l.Card.SetName) ||
			contains(l.Description) ||
			contains(l.Seller.DisplayName)
	}
}

func matchEquality(l *Listing, f FilterState) bool {
	if f.PokemonName != "" && !strings.Contains(strings.ToLower(l.Card.PokemonName), strings.ToLower(f.PokemonName)) {
		return false
	}
	if f.Language != "" && l.Card.Language != f.Language {
		return false
	}
	if f.Series != "" && l.Card.Series != f.Series {
		return false
	}
	if f.SetID != "" && l.Card.SetID != f.SetID {
		return false
	}
	return true
}

func matchFacets(l *Listing, f FilterState) bool {
	if !facetMatch(f.Conditions, l.Card.Condition) {
		return false
	}
	if !facetMatch(f.GradingCompanies, l.Card.GradingCompany) {
		return false
	}
	if !facetIntersects(f.VariantTags, l.Card.VariantTags) {
		return false
	}
	if !facetIntersects(f.PokemonTypes, l.Card.PokemonTypes) {
		return false
	}
	if !facetMatch(f.Categories, l.Card.Category) {
		return false
	}
	if !facetMatch(f.SealedProductTypes, l.Card.SealedProductType) {
		return false
	}
	if len(f.BreakStatuses) > 0 {
		if l.Break == nil {
			return false
		}
		if !facetMatch(f.BreakStatuses, string(l.Break.Status)) {
			return false
		}
	}
	return true
}

// facetMatch keeps the listing when the facet is inactive or the listing's
// value is one of the selected values.
func facetMatch(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

// facetIntersects keeps the listing when any of its values is selected.
func facetIntersects(selected, values []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		for _, v := range values {
			if s == v {
				return true
			}
		}
	}
	return false
}

func matchPrice(l *Listing, f FilterState) bool {
	if f.PriceMin != nil && l.Price < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && l.Price > *f.PriceMax {
		return false
	}
	return true
}

// endTime is the instant used by the ending-soon sort: auction end, break
// close, or the infinite future when neither applies.
func endTime(l *Listing) time.Time {
	if l.Auction != nil && l.Auction.EndsAt != nil {
		return *l.Auction.EndsAt
	}
	if l.Break != nil && l.Break.ClosesAt != nil {
		return *l.Break.ClosesAt
	}
	return time.Unix(1<<62, 0)
}

func bidsCount(l *Listing) int {
	if l.Auction == nil {
		return 0
	}
	return l.Auction.BidsCount
}

func sortListings(ls []*Listing, sortBy SortOption) {
	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price < ls[j].Price })
	case SortPriceDesc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price > ls[j].Price })
	case SortEndingSoon:
		sort.SliceStable(ls, func(i, j int) bool { return endTime(ls[i]).Before(endTime(ls[j])) })
	case SortMostBids:
		sort.SliceStable(ls, func(i, j int) bool { return bidsCount(ls[i]) > bidsCount(ls[j]) })
	default: // newest
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) })
	}
}
