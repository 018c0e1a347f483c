package bid

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

type fakeIdentity struct {
	users map[uuid.UUID]*user.User
}

func (f *fakeIdentity) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

type recordedEmit struct {
	UserID uuid.UUID
	Type   string
}

type fakeNotifier struct {
	emits []recordedEmit
}

func (f *fakeNotifier) Emit(_ context.Context, userID uuid.UUID, ntype, _, _ string, _ *uuid.UUID) {
	f.emits = append(f.emits, recordedEmit{UserID: userID, Type: ntype})
}

type fixture struct {
	svc      *Service
	catalog  *listing.Service
	notifier *fakeNotifier
	seller   *user.User
	bidder   *user.User
}

func newFixture(t *testing.T, bidderBalance int64) *fixture {
	t.Helper()

	seller := &user.User{ID: uuid.New(), DisplayName: "seller", Role: user.RoleSeller}
	bidder := &user.User{ID: uuid.New(), DisplayName: "bidder", Role: user.RoleCollector, Balance: bidderBalance}
	identity := &fakeIdentity{users: map[uuid.UUID]*user.User{seller.ID: seller, bidder.ID: bidder}}

	catalog := listing.NewService(listing.NewMemoryRepository(), identity)
	notifier := &fakeNotifier{}
	svc := NewService(NewMemoryRepository(), catalog, identity, notifier)

	return &fixture{svc: svc, catalog: catalog, notifier: notifier, seller: seller, bidder: bidder}
}

func (f *fixture) newAuction(t *testing.T, startingPrice int64) *listing.Listing {
	t.Helper()
	l, err := f.catalog.Create(context.Background(), f.seller.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeAuction),
		Title: "Test auction",
		Price: startingPrice,
	})
	if err != nil {
		t.Fatalf("create auction: %v", err)
	}
	return l
}

func TestPlaceBidFloorSequence(t *testing.T) {
	f := newFixture(t, 100_00)
	ctx := context.Background()
	l := f.newAuction(t, 10_00)

	// First bid below the starting price is rejected.
	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 9_99); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("below starting price: want ErrBidTooLow, got %v", err)
	}

	// First bid equal to the starting price is accepted.
	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 10_00); err != nil {
		t.Fatalf("first bid at starting price: %v", err)
	}

	// A repeat of the same amount is no longer enough.
	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 10_00); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("equal bid: want ErrBidTooLow, got %v", err)
	}

	// A strictly higher bid wins.
	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 15_00); err != nil {
		t.Fatalf("raising bid: %v", err)
	}

	got, err := f.catalog.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	if got.Auction.CurrentBid != 15_00 {
		t.Fatalf("CurrentBid = %d, want 1500", got.Auction.CurrentBid)
	}
	if got.Auction.BidsCount != 2 {
		t.Fatalf("BidsCount = %d, want 2", got.Auction.BidsCount)
	}
	if got.Auction.HighBidderID == nil || *got.Auction.HighBidderID != f.bidder.ID {
		t.Fatalf("HighBidderID = %v, want %s", got.Auction.HighBidderID, f.bidder.ID)
	}

	bids, err := f.svc.BidsByListing(ctx, l.ID)
	if err != nil {
		t.Fatalf("list bids: %v", err)
	}
	if len(bids) != 2 || bids[0].Amount != 15_00 || bids[1].Amount != 10_00 {
		t.Fatalf("bids not amount-descending: %+v", bids)
	}
}

func TestPlaceBidRejectionLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, 100_00)
	ctx := context.Background()
	l := f.newAuction(t, 10_00)

	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 10_00); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 5_00); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("want ErrBidTooLow, got %v", err)
	}

	got, _ := f.catalog.GetByID(ctx, l.ID)
	if got.Auction.CurrentBid != 10_00 || got.Auction.BidsCount != 1 {
		t.Fatalf("rejected bid changed state: %+v", got.Auction)
	}
	bids, _ := f.svc.BidsByListing(ctx, l.ID)
	if len(bids) != 1 {
		t.Fatalf("rejected bid reached the ledger: %d rows", len(bids))
	}
}

func TestPlaceBidInsufficientFunds(t *testing.T) {
	f := newFixture(t, 5_00)
	ctx := context.Background()
	l := f.newAuction(t, 10_00)

	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 10_00); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	bids, _ := f.svc.BidsByListing(ctx, l.ID)
	if len(bids) != 0 {
		t.Fatal("unfunded bid reached the ledger")
	}
}

func TestPlaceBidNonAuctionAndMissing(t *testing.T) {
	f := newFixture(t, 100_00)
	ctx := context.Background()

	direct, err := f.catalog.Create(ctx, f.seller.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeDirectSale),
		Title: "Direct sale card",
		Price: 10_00,
	})
	if err != nil {
		t.Fatalf("create direct sale: %v", err)
	}

	if _, err := f.svc.PlaceBid(ctx, direct.ID, f.bidder.ID, 20_00); !errors.Is(err, ErrNotAuction) {
		t.Fatalf("direct sale: want ErrNotAuction, got %v", err)
	}
	if _, err := f.svc.PlaceBid(ctx, uuid.New(), f.bidder.ID, 20_00); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("missing listing: want ErrNotFound, got %v", err)
	}
}

func TestPlaceBidNotifiesSeller(t *testing.T) {
	f := newFixture(t, 100_00)
	ctx := context.Background()
	l := f.newAuction(t, 10_00)

	if _, err := f.svc.PlaceBid(ctx, l.ID, f.bidder.ID, 10_00); err != nil {
		t.Fatalf("place bid: %v", err)
	}

	if len(f.notifier.emits) != 1 {
		t.Fatalf("got %d notifications, want 1", len(f.notifier.emits))
	}
	e := f.notifier.emits[0]
	if e.UserID != f.seller.ID || e.Type != "new_bid" {
		t.Fatalf("notification = %+v, want new_bid to seller", e)
	}
}
