package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service is the identity collaborator facade. The transaction engine talks
// to identity exclusively through GetByID, ApplyBalanceDelta and SetFields.
type Service struct {
	repo Repository
}

// NewService creates user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureUser upserts the local mirror of an identity-provider account from
// validated token claims. Called on first authenticated request.
func (s *Service) EnsureUser(ctx context.Context, id uuid.UUID, email, displayName, avatarURL, role string, verified bool) (*User, error) {
	now := time.Now()
	u := &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		Role:        Role(role),
		Verified:    verified,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if u.Role == "" {
		u.Role = RoleCollector
	}
	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// ApplyBalanceDelta mutates the live balance and returns the new value.
// Only the wallet ledger may call this.
func (s *Service) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	balance, err := s.repo.ApplyBalanceDelta(ctx, id, delta)
	if err != nil {
		return 0, err
	}
	log.Debug().Str("user_id", id.String()).Int64("delta", delta).Int64("balance", balance).Msg("balance delta applied")
	return balance, nil
}

// SetFields updates profile fields (role changes, display name, avatar).
func (s *Service) SetFields(ctx context.Context, id uuid.UUID, fields UpdateFields) error {
	return s.repo.SetFields(ctx, id, fields)
}
