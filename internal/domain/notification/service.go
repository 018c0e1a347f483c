package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service owns the notification ledger. Emission is fire-and-forget: a
// persistence or publish failure is logged and never fails the mutation
// that triggered it.
type Service struct {
	repo      Repository
	publisher Publisher
}

// NewService creates notification service
func NewService(repo Repository, publisher Publisher) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher}
}

// Emit appends a notification and pushes a realtime hint
func (s *Service) Emit(ctx context.Context, userID uuid.UUID, ntype, title, body string, linkTo *uuid.UUID) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      Type(ntype),
		Title:     title,
		Body:      body,
		LinkTo:    linkTo,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Append(ctx, n); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("type", ntype).
			Msg("Failed to store notification")
		return
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}
	if err := s.publisher.NotifyNew(ctx, userID, n, unread); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to publish notification event")
	}
}

// ListByUser returns the user's notifications, newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount returns the user's unread total
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one notification read; reading twice is a no-op
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks everything read
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
