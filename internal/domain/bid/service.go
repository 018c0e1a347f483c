package bid

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

// Catalog is the slice of the listing service the bid ledger needs.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
	Update(ctx context.Context, id uuid.UUID, apply func(*listing.Listing)) error
}

// IdentityStore reads bidder balance and snapshot.
type IdentityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Notifier delivers fire-and-forget notifications.
type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, ntype, title, body string, linkTo *uuid.UUID)
}

// Service owns the bid ledger. A single mutex serializes PlaceBid so two
// concurrent bids can never both read the same CurrentBid.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	catalog  Catalog
	identity IdentityStore
	notifier Notifier
}

// NewService creates a bid service
func NewService(repo Repository, catalog Catalog, identity IdentityStore, notifier Notifier) *Service {
	return &Service{repo: repo, catalog: catalog, identity: identity, notifier: notifier}
}

// PlaceBid validates and records a bid. The first bid must meet the
// starting price; later bids must strictly exceed the current high bid.
// Funds are only authorized against the bidder's balance, never moved.
func (s *Service) PlaceBid(ctx context.Context, listingID, bidderID uuid.UUID, amount int64) (*Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.catalog.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Type != listing.TypeAuction || l.Auction == nil {
		return nil, ErrNotAuction
	}
	if l.IsSold {
		return nil, ErrListingClosed
	}
	if l.Auction.EndsAt != nil && time.Now().After(*l.Auction.EndsAt) {
		return nil, ErrListingClosed
	}

	// CurrentBid starts at zero, so the first comparison is against the
	// starting price.
	if l.Auction.BidsCount == 0 {
		if amount < l.Price {
			return nil, ErrBidTooLow
		}
	} else if amount <= l.Auction.CurrentBid {
		return nil, ErrBidTooLow
	}

	bidder, err := s.identity.GetByID(ctx, bidderID)
	if err != nil {
		return nil, err
	}
	if bidder.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	b := &Bid{
		ID:        uuid.New(),
		ListingID: listingID,
		Bidder:    bidder.Snapshot(),
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Append(ctx, b); err != nil {
		return nil, err
	}

	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Auction.CurrentBid = amount
		l.Auction.BidsCount++
		id := bidderID
		l.Auction.HighBidderID = &id
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("listing_id", listingID.String()).
		Str("bidder_id", bidderID.String()).
		Int64("amount", amount).
		Msg("Bid placed")

	s.notifier.Emit(ctx, l.Seller.ID, "new_bid", "New bid on your auction",
		fmt.Sprintf("%s bid %d on %q", bidder.DisplayName, amount, l.Title), &listingID)

	return b, nil
}

// BidsByListing returns the listing's bids sorted amount-descending, so the
// current leader is first regardless of insertion order.
func (s *Service) BidsByListing(ctx context.Context, listingID uuid.UUID) ([]*Bid, error) {
	if _, err := s.catalog.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.ListByListing(ctx, listingID)
}
