package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// IdentityStore owns the live balance the ledger mirrors.
type IdentityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}

// Catalog is the slice of the listing service buy-now needs.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
	MarkSold(ctx context.Context, id uuid.UUID) error
	UnmarkSold(ctx context.Context, id uuid.UUID) error
}

// Notifier delivers fire-and-forget notifications.
type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, ntype, title, body string, linkTo *uuid.UUID)
}

// Service owns all balance movements. One mutex serializes them so the
// ledger and the live balance never diverge.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	identity IdentityStore
	catalog  Catalog
	notifier Notifier
}

// NewService creates a wallet service
func NewService(repo Repository, identity IdentityStore, catalog Catalog, notifier Notifier) *Service {
	return &Service{repo: repo, identity: identity, catalog: catalog, notifier: notifier}
}

// Record appends a signed ledger row and applies the same delta to the
// live balance. Callers must hold s.mu.
func (s *Service) record(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, description string, referenceID *uuid.UUID) (*Transaction, error) {
	u, err := s.identity.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if amount < 0 && u.Balance+amount < 0 {
		return nil, ErrInsufficientFunds
	}

	tx := &Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		Amount:       amount,
		Type:         txType,
		Description:  description,
		ReferenceID:  referenceID,
		BalanceAfter: u.Balance + amount,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Append(ctx, tx); err != nil {
		return nil, err
	}
	if _, err := s.identity.ApplyBalanceDelta(ctx, userID, amount); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("type", string(txType)).
		Int64("amount", amount).
		Int64("balance_after", tx.BalanceAfter).
		Msg("Wallet transaction recorded")

	return tx, nil
}

// Record appends an externally-driven movement, e.g. a break settlement
// charge or release.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, description string, referenceID *uuid.UUID) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(ctx, userID, amount, txType, description, referenceID)
}

// Deposit credits the wallet
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(ctx, userID, amount, TransactionTypeDeposit, "Wallet deposit", nil)
}

// Withdraw debits the wallet, failing when the balance does not cover it
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount int64) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(ctx, userID, -amount, TransactionTypeWithdrawal, "Wallet withdrawal", nil)
}

// BuyNow purchases a direct-sale listing. The listing is claimed with a
// compare-and-set before any money moves, which makes a second concurrent
// call fail with ErrAlreadySold instead of double-charging; a charge
// failure after the claim reverts the sold flag.
func (s *Service) BuyNow(ctx context.Context, buyerID, listingID uuid.UUID) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.catalog.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Type != listing.TypeDirectSale {
		return nil, ErrNotDirectSale
	}
	if l.Seller.ID == buyerID {
		return nil, ErrOwnListing
	}
	if l.IsSold {
		return nil, listing.ErrAlreadySold
	}

	buyer, err := s.identity.GetByID(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if buyer.Balance < l.Price {
		return nil, ErrInsufficientFunds
	}

	if err := s.catalog.MarkSold(ctx, listingID); err != nil {
		return nil, err
	}

	tx, err := s.record(ctx, buyerID, -l.Price, TransactionTypePurchase,
		fmt.Sprintf("Purchase of %q", l.Title), &listingID)
	if err != nil {
		if revertErr := s.catalog.UnmarkSold(ctx, listingID); revertErr != nil {
			log.Error().Err(revertErr).
				Str("listing_id", listingID.String()).
				Msg("Failed to revert sold claim after charge failure")
		}
		return nil, err
	}

	// Credit the seller.
	if _, err := s.record(ctx, l.Seller.ID, l.Price, TransactionTypeRelease,
		fmt.Sprintf("Sale of %q", l.Title), &listingID); err != nil {
		log.Error().Err(err).
			Str("listing_id", listingID.String()).
			Str("seller_id", l.Seller.ID.String()).
			Msg("Failed to credit seller for sale")
	}

	s.notifier.Emit(ctx, l.Seller.ID, "sale", "Your listing sold",
		fmt.Sprintf("%s bought %q for %d", buyer.DisplayName, l.Title, l.Price), &listingID)

	return tx, nil
}

// Charge debits a settlement fee against a listing reference. Used by the
// break ledger when entries convert to charged.
func (s *Service) Charge(ctx context.Context, userID uuid.UUID, amount int64, description string, referenceID uuid.UUID) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.record(ctx, userID, -amount, TransactionTypePurchase, description, &referenceID)
	return err
}

// Release credits funds back, or out to a host, against a listing reference
func (s *Service) Release(ctx context.Context, userID uuid.UUID, amount int64, description string, referenceID uuid.UUID) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.record(ctx, userID, amount, TransactionTypeRelease, description, &referenceID)
	return err
}

// Balance returns the live balance
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	u, err := s.identity.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// Transactions returns the user's ledger history, newest first
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
