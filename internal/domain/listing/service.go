package listing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// IdentityStore is the slice of the identity collaborator the catalog needs:
// a seller snapshot at creation time.
type IdentityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service owns the listing catalog
type Service struct {
	repo     Repository
	identity IdentityStore
}

// NewService creates a catalog service
func NewService(repo Repository, identity IdentityStore) *Service {
	return &Service{repo: repo, identity: identity}
}

// Create stores a new listing with the seller's snapshot and zeroed
// counters. Variant details are attached only for the matching type.
func (s *Service) Create(ctx context.Context, sellerID uuid.UUID, req *CreateListingRequest) (*Listing, error) {
	seller, err := s.identity.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	l := &Listing{
		ID:          uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Type:        Type(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Seller:      seller.Snapshot(),
		Card: CardAttributes{
			PokemonName:       req.PokemonName,
			CardNumber:        req.CardNumber,
			SetID:             req.SetID,
			SetName:           req.SetName,
			Series:            req.Series,
			Language:          req.Language,
			Condition:         req.Condition,
			GradingCompany:    req.GradingCompany,
			Grade:             req.Grade,
			PokemonTypes:      req.PokemonTypes,
			VariantTags:       req.VariantTags,
			Category:          req.Category,
			SealedProductType: req.SealedProductType,
			BoosterName:       req.BoosterName,
			ImageURL:          req.ImageURL,
		},
	}

	switch l.Type {
	case TypeAuction:
		l.Auction = &AuctionDetails{EndsAt: req.AuctionEndsAt}
	case TypeTimedBreak:
		if req.TargetParticipants < 2 {
			return nil, ErrInvalidBreakConfig
		}
		maxEntries := req.MaxEntriesPerUser
		if maxEntries == 0 {
			maxEntries = 1
		}
		l.Break = &BreakDetails{
			TargetParticipants: req.TargetParticipants,
			MaxEntriesPerUser:  maxEntries,
			Status:             BreakOpen,
			ClosesAt:           req.ClosesAt,
		}
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	log.Info().
		Str("listing_id", l.ID.String()).
		Str("type", string(l.Type)).
		Str("seller_id", sellerID.String()).
		Int64("price", l.Price).
		Msg("Listing created")

	return l, nil
}

// GetByID returns one listing
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAll returns the full catalog snapshot used by the query engine
func (s *Service) ListAll(ctx context.Context) ([]*Listing, error) {
	return s.repo.List(ctx)
}

// ListBySeller returns a seller's listings, newest first
func (s *Service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*Listing, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

// Search projects the catalog through the query engine
func (s *Service) Search(ctx context.Context, scope AppScope, f FilterState, sortBy SortOption) ([]*Listing, error) {
	catalog, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Project(catalog, scope, f, sortBy), nil
}

// Update applies a merge-style mutation to a listing. An absent id is a
// no-op; callers that care verify existence with GetByID first.
func (s *Service) Update(ctx context.Context, id uuid.UUID, apply func(*Listing)) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	apply(l)
	return s.repo.Update(ctx, l)
}

// UpdateFields merges owner-editable fields. Only the seller may edit, and
// only while unsold.
func (s *Service) UpdateFields(ctx context.Context, actorID, id uuid.UUID, req *UpdateListingRequest) (*Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.Seller.ID != actorID {
		return nil, ErrForbidden
	}
	if l.IsSold {
		return nil, ErrAlreadySold
	}

	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	if req.ImageURL != nil {
		l.Card.ImageURL = *req.ImageURL
	}

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// MarkSold claims a listing for sale exactly once
func (s *Service) MarkSold(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkSold(ctx, id)
}

// UnmarkSold reverts a sold claim after a failed charge
func (s *Service) UnmarkSold(ctx context.Context, id uuid.UUID) error {
	return s.repo.UnmarkSold(ctx, id)
}
