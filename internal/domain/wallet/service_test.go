package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

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
	users    *user.Service
	catalog  *listing.Service
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := user.NewService(user.NewMemoryRepository())
	catalog := listing.NewService(listing.NewMemoryRepository(), users)
	notifier := &fakeNotifier{}
	svc := NewService(NewMemoryRepository(), users, catalog, notifier)
	return &fixture{svc: svc, users: users, catalog: catalog, notifier: notifier}
}

func (f *fixture) newUser(t *testing.T, name string, balance int64) *user.User {
	t.Helper()
	u, err := f.users.EnsureUser(context.Background(), uuid.New(), name+"@example.com", name, "", "collector", true)
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if balance > 0 {
		if _, err := f.svc.Deposit(context.Background(), u.ID, balance); err != nil {
			t.Fatalf("seed deposit: %v", err)
		}
	}
	got, err := f.users.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return got
}

func TestBalanceEqualsLatestBalanceAfter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.newUser(t, "alice", 0)

	moves := []struct {
		deposit bool
		amount  int64
	}{
		{true, 100_00},
		{false, 30_00},
		{true, 5_00},
		{false, 25_00},
	}

	for _, m := range moves {
		var err error
		if m.deposit {
			_, err = f.svc.Deposit(ctx, u.ID, m.amount)
		} else {
			_, err = f.svc.Withdraw(ctx, u.ID, m.amount)
		}
		if err != nil {
			t.Fatalf("move %+v: %v", m, err)
		}

		balance, err := f.svc.Balance(ctx, u.ID)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		txs, err := f.svc.Transactions(ctx, u.ID, 1, 0)
		if err != nil || len(txs) != 1 {
			t.Fatalf("latest transaction: %v (%d rows)", err, len(txs))
		}
		if balance != txs[0].BalanceAfter {
			t.Fatalf("balance %d != latest BalanceAfter %d", balance, txs[0].BalanceAfter)
		}
	}

	balance, _ := f.svc.Balance(ctx, u.ID)
	if balance != 50_00 {
		t.Fatalf("final balance = %d, want 5000", balance)
	}
}

func TestWithdrawOverBalanceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.newUser(t, "bob", 100_00)

	if _, err := f.svc.Withdraw(ctx, u.ID, 150_00); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	balance, _ := f.svc.Balance(ctx, u.ID)
	if balance != 100_00 {
		t.Fatalf("failed withdrawal moved money: balance = %d", balance)
	}
	txs, _ := f.svc.Transactions(ctx, u.ID, 10, 0)
	if len(txs) != 1 {
		t.Fatalf("failed withdrawal reached the ledger: %d rows", len(txs))
	}
}

func TestDepositWithdrawRejectNonPositive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.newUser(t, "carol", 10_00)

	if _, err := f.svc.Deposit(ctx, u.ID, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero deposit: want ErrInvalidAmount, got %v", err)
	}
	if _, err := f.svc.Withdraw(ctx, u.ID, -5); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative withdrawal: want ErrInvalidAmount, got %v", err)
	}
}

func TestBuyNowHappyPathMovesMoneyAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.newUser(t, "seller", 0)
	buyer := f.newUser(t, "buyer", 100_00)

	l, err := f.catalog.Create(ctx, seller.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeDirectSale),
		Title: "Gengar EX",
		Price: 40_00,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	tx, err := f.svc.BuyNow(ctx, buyer.ID, l.ID)
	if err != nil {
		t.Fatalf("BuyNow: %v", err)
	}
	if tx.Amount != -40_00 || tx.Type != TransactionTypePurchase {
		t.Fatalf("purchase row = %+v", tx)
	}

	buyerBalance, _ := f.svc.Balance(ctx, buyer.ID)
	if buyerBalance != 60_00 {
		t.Fatalf("buyer balance = %d, want 6000", buyerBalance)
	}
	sellerBalance, _ := f.svc.Balance(ctx, seller.ID)
	if sellerBalance != 40_00 {
		t.Fatalf("seller balance = %d, want 4000", sellerBalance)
	}

	got, _ := f.catalog.GetByID(ctx, l.ID)
	if !got.IsSold {
		t.Fatal("listing not marked sold")
	}

	if len(f.notifier.emits) != 1 || f.notifier.emits[0].Type != "sale" || f.notifier.emits[0].UserID != seller.ID {
		t.Fatalf("sale notification = %+v", f.notifier.emits)
	}
}

func TestBuyNowIsIdempotentOnSoldListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.newUser(t, "seller", 0)
	buyer := f.newUser(t, "buyer", 100_00)
	rival := f.newUser(t, "rival", 100_00)

	l, err := f.catalog.Create(ctx, seller.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeDirectSale),
		Title: "Blastoise Holo",
		Price: 40_00,
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	if _, err := f.svc.BuyNow(ctx, buyer.ID, l.ID); err != nil {
		t.Fatalf("first BuyNow: %v", err)
	}
	if _, err := f.svc.BuyNow(ctx, rival.ID, l.ID); !errors.Is(err, listing.ErrAlreadySold) {
		t.Fatalf("second BuyNow: want ErrAlreadySold, got %v", err)
	}

	// Only the first buyer paid.
	rivalBalance, _ := f.svc.Balance(ctx, rival.ID)
	if rivalBalance != 100_00 {
		t.Fatalf("rival was charged: balance = %d", rivalBalance)
	}
}

func TestBuyNowGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.newUser(t, "seller", 100_00)
	poor := f.newUser(t, "poor", 5_00)

	direct, _ := f.catalog.Create(ctx, seller.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeDirectSale),
		Title: "Dragonite V",
		Price: 40_00,
	})
	auction, _ := f.catalog.Create(ctx, seller.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeAuction),
		Title: "Lugia Legend",
		Price: 40_00,
	})

	if _, err := f.svc.BuyNow(ctx, poor.ID, direct.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("underfunded: want ErrInsufficientFunds, got %v", err)
	}
	got, _ := f.catalog.GetByID(ctx, direct.ID)
	if got.IsSold {
		t.Fatal("failed purchase left the listing sold")
	}

	if _, err := f.svc.BuyNow(ctx, poor.ID, auction.ID); !errors.Is(err, ErrNotDirectSale) {
		t.Fatalf("auction: want ErrNotDirectSale, got %v", err)
	}
	if _, err := f.svc.BuyNow(ctx, seller.ID, direct.ID); !errors.Is(err, ErrOwnListing) {
		t.Fatalf("own listing: want ErrOwnListing, got %v", err)
	}
	if _, err := f.svc.BuyNow(ctx, poor.ID, uuid.New()); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("missing: want ErrNotFound, got %v", err)
	}
}
