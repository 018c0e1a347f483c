package listing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

func fixtureCatalog() []*Listing {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seller := func(name string) user.Snapshot {
		return user.Snapshot{ID: uuid.New(), DisplayName: name}
	}
	end := base.Add(24 * time.Hour)
	closes := base.Add(72 * time.Hour)

	return []*Listing{
		{
			ID: uuid.New(), CreatedAt: base, Type: TypeDirectSale,
			Title: "Charizard Base Set Holo", Price: 45000,
			Seller: seller("cardshark"),
			Card: CardAttributes{
				PokemonName: "Charizard", SetName: "Base Set", Series: "Original",
				Language: "English", Condition: "NM", GradingCompany: "PSA",
				PokemonTypes: []string{"Fire"}, VariantTags: []string{"holo", "1st_edition"},
				Category: "single",
			},
		},
		{
			ID: uuid.New(), CreatedAt: base.Add(time.Hour), Type: TypeAuction,
			Title: "Pikachu Illustrator Reprint", Price: 12000,
			Seller: seller("auctionhouse"),
			Card: CardAttributes{
				PokemonName: "Pikachu", SetName: "Promo", Series: "Promos",
				Language: "Japanese", Condition: "LP",
				PokemonTypes: []string{"Electric"}, VariantTags: []string{"promo"},
				Category: "single",
			},
			Auction: &AuctionDetails{CurrentBid: 15000, BidsCount: 4, EndsAt: &end},
		},
		{
			ID: uuid.New(), CreatedAt: base.Add(2 * time.Hour), Type: TypeTimedBreak,
			Title: "Evolving Skies Booster Box Break", Price: 2500,
			Seller: seller("breakmaster"),
			Card: CardAttributes{
				SetName: "Evolving Skies", Series: "Sword & Shield",
				Language: "English", Category: "sealed",
				SealedProductType: "booster_box", BoosterName: "Evolving Skies",
			},
			Break: &BreakDetails{
				TargetParticipants: 10, CurrentParticipants: 3,
				Status: BreakOpen, MaxEntriesPerUser: 2, ClosesAt: &closes,
			},
		},
		{
			ID: uuid.New(), CreatedAt: base.Add(3 * time.Hour), Type: TypeDirectSale,
			Title: "Umbreon VMAX Alt Art", Price: 90000,
			Seller: seller("cardshark"),
			Card: CardAttributes{
				PokemonName: "Umbreon", SetName: "Evolving Skies", Series: "Sword & Shield",
				Language: "English", Condition: "NM", GradingCompany: "BGS",
				PokemonTypes: []string{"Darkness"}, VariantTags: []string{"alt_art"},
				Category: "single",
			},
		},
	}
}

func TestProjectScopeSplitsBreaksFromMarketplace(t *testing.T) {
	catalog := fixtureCatalog()

	market := Project(catalog, ScopeMarketplace, DefaultFilterState(), SortNewest)
	for _, l := range market {
		if l.Type == TypeTimedBreak {
			t.Fatalf("marketplace scope leaked a timed break: %s", l.Title)
		}
	}
	if len(market) != 3 {
		t.Fatalf("marketplace scope: got %d listings, want 3", len(market))
	}

	breaks := Project(catalog, ScopeBreaks, DefaultFilterState(), SortNewest)
	if len(breaks) != 1 || breaks[0].Type != TypeTimedBreak {
		t.Fatalf("breaks scope: got %d listings, want exactly the break", len(breaks))
	}

	all := Project(catalog, ScopeAll, DefaultFilterState(), SortNewest)
	if len(all) != len(catalog) {
		t.Fatalf("all scope: got %d listings, want %d", len(all), len(catalog))
	}
}

func TestProjectFreeTextSearchScopes(t *testing.T) {
	catalog := fixtureCatalog()

	f := DefaultFilterState()
	f.Query = "charizard"
	got := Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 1 || got[0].Card.PokemonName != "Charizard" {
		t.Fatalf("all-scope search: got %d results", len(got))
	}

	// Seller scope should not match titles.
	f = DefaultFilterState()
	f.Query = "cardshark"
	f.SearchScope = SearchSeller
	got = Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 2 {
		t.Fatalf("seller search: got %d results, want 2", len(got))
	}

	f.SearchScope = SearchTitle
	got = Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 0 {
		t.Fatalf("title search for seller name: got %d results, want 0", len(got))
	}
}

func TestProjectFacetsORWithinANDAcross(t *testing.T) {
	catalog := fixtureCatalog()

	f := DefaultFilterState()
	f.Conditions = []string{"NM", "LP"}
	got := Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 3 {
		t.Fatalf("OR within conditions facet: got %d, want 3", len(got))
	}

	// Adding a second facet narrows: NM|LP AND graded by PSA.
	f.GradingCompanies = []string{"PSA"}
	got = Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 1 || got[0].Card.GradingCompany != "PSA" {
		t.Fatalf("AND across facets: got %d, want 1 PSA listing", len(got))
	}
}

func TestProjectVariantTagIntersection(t *testing.T) {
	catalog := fixtureCatalog()

	f := DefaultFilterState()
	f.VariantTags = []string{"holo", "alt_art"}
	got := Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 2 {
		t.Fatalf("variant tag intersection: got %d, want 2", len(got))
	}
}

func TestProjectBreakStatusFacetExcludesNonBreaks(t *testing.T) {
	catalog := fixtureCatalog()

	f := DefaultFilterState()
	f.BreakStatuses = []string{string(BreakOpen)}
	got := Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 1 || got[0].Break == nil {
		t.Fatalf("break status facet: got %d, want only the open break", len(got))
	}
}

func TestProjectPriceBoundsInclusive(t *testing.T) {
	catalog := fixtureCatalog()

	min, max := int64(2500), int64(45000)
	f := DefaultFilterState()
	f.PriceMin = &min
	f.PriceMax = &max
	got := Project(catalog, ScopeAll, f, SortNewest)
	if len(got) != 3 {
		t.Fatalf("inclusive price range: got %d, want 3", len(got))
	}
	for _, l := range got {
		if l.Price < min || l.Price > max {
			t.Fatalf("listing %q price %d outside [%d,%d]", l.Title, l.Price, min, max)
		}
	}
}

func TestProjectSortOrders(t *testing.T) {
	catalog := fixtureCatalog()

	asc := Project(catalog, ScopeAll, DefaultFilterState(), SortPriceAsc)
	for i := 1; i < len(asc); i++ {
		if asc[i-1].Price > asc[i].Price {
			t.Fatalf("price_asc out of order at %d", i)
		}
	}

	ending := Project(catalog, ScopeAll, DefaultFilterState(), SortEndingSoon)
	if ending[0].Type != TypeAuction {
		t.Fatalf("ending_soon: want the auction first, got %s", ending[0].Title)
	}
	if ending[1].Type != TypeTimedBreak {
		t.Fatalf("ending_soon: want the break second, got %s", ending[1].Title)
	}

	bids := Project(catalog, ScopeAll, DefaultFilterState(), SortMostBids)
	if bids[0].Type != TypeAuction {
		t.Fatalf("most_bids: want the auction first, got %s", bids[0].Title)
	}

	newest := Project(catalog, ScopeAll, DefaultFilterState(), SortNewest)
	for i := 1; i < len(newest); i++ {
		if newest[i-1].CreatedAt.Before(newest[i].CreatedAt) {
			t.Fatalf("newest out of order at %d", i)
		}
	}
}

func TestProjectIsDeterministicAndPure(t *testing.T) {
	catalog := fixtureCatalog()
	f := DefaultFilterState()

	a := Project(catalog, ScopeAll, f, SortPriceAsc)
	b := Project(catalog, ScopeAll, f, SortPriceAsc)
	if len(a) != len(b) {
		t.Fatalf("projection not deterministic: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("projection order differs at %d", i)
		}
	}

	// Input order untouched.
	if catalog[0].Type != TypeDirectSale || catalog[3].Title != "Umbreon VMAX Alt Art" {
		t.Fatal("Project mutated its input")
	}
}
