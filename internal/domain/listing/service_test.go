package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

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

func newTestService(t *testing.T) (*Service, *user.User) {
	t.Helper()
	seller := &user.User{
		ID:          uuid.New(),
		DisplayName: "breakmaster",
		Role:        user.RoleBreaker,
		Verified:    true,
	}
	identity := &fakeIdentity{users: map[uuid.UUID]*user.User{seller.ID: seller}}
	return NewService(NewMemoryRepository(), identity), seller
}

func TestCreateStampsSellerSnapshotAndZeroCounters(t *testing.T) {
	svc, seller := newTestService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, seller.ID, &CreateListingRequest{
		Type:  string(TypeAuction),
		Title: "Mewtwo EX Auction",
		Price: 8000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if l.Seller.ID != seller.ID || l.Seller.DisplayName != "breakmaster" || !l.Seller.Verified {
		t.Fatalf("seller snapshot not stamped: %+v", l.Seller)
	}
	if l.Auction == nil || l.Auction.CurrentBid != 0 || l.Auction.BidsCount != 0 || l.Auction.HighBidderID != nil {
		t.Fatalf("auction counters not zeroed: %+v", l.Auction)
	}
	if l.IsSold {
		t.Fatal("new listing must not be sold")
	}
	if l.Break != nil {
		t.Fatal("auction listing must not carry break details")
	}
}

func TestCreateBreakRequiresTargetAndDefaultsEntryCap(t *testing.T) {
	svc, seller := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, seller.ID, &CreateListingRequest{
		Type:  string(TypeTimedBreak),
		Title: "Bad break",
		Price: 1000,
	})
	if !errors.Is(err, ErrInvalidBreakConfig) {
		t.Fatalf("want ErrInvalidBreakConfig, got %v", err)
	}

	l, err := svc.Create(ctx, seller.ID, &CreateListingRequest{
		Type:               string(TypeTimedBreak),
		Title:              "Good break",
		Price:              1000,
		TargetParticipants: 5,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Break.Status != BreakOpen || l.Break.CurrentParticipants != 0 {
		t.Fatalf("break not opened fresh: %+v", l.Break)
	}
	if l.Break.MaxEntriesPerUser != 1 {
		t.Fatalf("entry cap default: got %d, want 1", l.Break.MaxEntriesPerUser)
	}
}

func TestUpdateFieldsOwnershipAndSoldGuard(t *testing.T) {
	svc, seller := newTestService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, seller.ID, &CreateListingRequest{
		Type:  string(TypeDirectSale),
		Title: "Snorlax Promo",
		Price: 3000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Snorlax Promo NM"
	if _, err := svc.UpdateFields(ctx, uuid.New(), l.ID, &UpdateListingRequest{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner edit: want ErrForbidden, got %v", err)
	}

	updated, err := svc.UpdateFields(ctx, seller.ID, l.ID, &UpdateListingRequest{Title: &title})
	if err != nil {
		t.Fatalf("owner edit: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("title not merged: %q", updated.Title)
	}

	if err := svc.MarkSold(ctx, l.ID); err != nil {
		t.Fatalf("MarkSold: %v", err)
	}
	if _, err := svc.UpdateFields(ctx, seller.ID, l.ID, &UpdateListingRequest{Title: &title}); !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("sold edit: want ErrAlreadySold, got %v", err)
	}
}

func TestMarkSoldIsCompareAndSet(t *testing.T) {
	svc, seller := newTestService(t)
	ctx := context.Background()

	l, err := svc.Create(ctx, seller.ID, &CreateListingRequest{
		Type:  string(TypeDirectSale),
		Title: "Eevee Heroes Pack",
		Price: 500,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.MarkSold(ctx, l.ID); err != nil {
		t.Fatalf("first MarkSold: %v", err)
	}
	if err := svc.MarkSold(ctx, l.ID); !errors.Is(err, ErrAlreadySold) {
		t.Fatalf("second MarkSold: want ErrAlreadySold, got %v", err)
	}
	if err := svc.MarkSold(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing MarkSold: want ErrNotFound, got %v", err)
	}

	if err := svc.UnmarkSold(ctx, l.ID); err != nil {
		t.Fatalf("UnmarkSold: %v", err)
	}
	got, _ := svc.GetByID(ctx, l.ID)
	if got.IsSold {
		t.Fatal("UnmarkSold did not revert the claim")
	}
}

func TestUpdateAbsentIDIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)

	called := false
	if err := svc.Update(context.Background(), uuid.New(), func(*Listing) { called = true }); err != nil {
		t.Fatalf("Update on absent id: %v", err)
	}
	if called {
		t.Fatal("mutation callback ran for an absent listing")
	}
}
