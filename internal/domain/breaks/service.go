package breaks

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

// Catalog is the slice of the listing service the break ledger needs.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
	Update(ctx context.Context, id uuid.UUID, apply func(*listing.Listing)) error
	ListAll(ctx context.Context) ([]*listing.Listing, error)
}

// IdentityStore reads participant balance, snapshot and role.
type IdentityStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Ledger moves entry fees at settlement time.
type Ledger interface {
	Charge(ctx context.Context, userID uuid.UUID, amount int64, description string, referenceID uuid.UUID) error
	Release(ctx context.Context, userID uuid.UUID, amount int64, description string, referenceID uuid.UUID) error
}

// Notifier delivers fire-and-forget notifications.
type Notifier interface {
	Emit(ctx context.Context, userID uuid.UUID, ntype, title, body string, linkTo *uuid.UUID)
}

// Service owns break participation and the break status machine. One mutex
// serializes all mutations so capacity checks never race.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	catalog  Catalog
	identity IdentityStore
	ledger   Ledger
	notifier Notifier
}

// NewService creates a break service
func NewService(repo Repository, catalog Catalog, identity IdentityStore, ledger Ledger, notifier Notifier) *Service {
	return &Service{repo: repo, catalog: catalog, identity: identity, ledger: ledger, notifier: notifier}
}

func (s *Service) getBreak(ctx context.Context, listingID uuid.UUID) (*listing.Listing, error) {
	l, err := s.catalog.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Type != listing.TypeTimedBreak || l.Break == nil {
		return nil, ErrNotBreak
	}
	return l, nil
}

// Join holds a slot in an open break. The fee is authorized against the
// participant's balance but not moved; charging happens at completion.
func (s *Service) Join(ctx context.Context, listingID, userID uuid.UUID) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.join(ctx, listingID, userID)
}

func (s *Service) join(ctx context.Context, listingID, userID uuid.UUID) (*Entry, error) {
	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return nil, err
	}
	switch {
	case l.Break.Status == listing.BreakFullPendingSchedule:
		return nil, ErrBreakFull
	case l.Break.Status != listing.BreakOpen:
		return nil, ErrBreakClosed
	case l.Break.CurrentParticipants >= l.Break.TargetParticipants:
		return nil, ErrBreakFull
	}

	active, err := s.repo.CountActiveEntriesByUser(ctx, listingID, userID)
	if err != nil {
		return nil, err
	}
	if active >= l.Break.MaxEntriesPerUser {
		return nil, ErrEntryLimit
	}

	u, err := s.identity.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Balance < l.Price {
		return nil, ErrInsufficientFunds
	}

	e := &Entry{
		ID:        uuid.New(),
		ListingID: listingID,
		User:      u.Snapshot(),
		Status:    EntryAuthorized,
		Fee:       l.Price,
		JoinedAt:  time.Now(),
	}
	if err := s.repo.AppendEntry(ctx, e); err != nil {
		return nil, err
	}

	filled := l.Break.CurrentParticipants+1 >= l.Break.TargetParticipants
	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Break.CurrentParticipants++
		if filled {
			l.Break.Status = listing.BreakFullPendingSchedule
		}
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("listing_id", listingID.String()).
		Str("user_id", userID.String()).
		Int("participants", l.Break.CurrentParticipants+1).
		Bool("filled", filled).
		Msg("Break entry added")

	if filled {
		s.notifier.Emit(ctx, l.Seller.ID, "break_full", "Your break is full",
			fmt.Sprintf("%q reached %d participants — schedule the live stream", l.Title, l.Break.TargetParticipants), &listingID)
	}

	return e, nil
}

// Schedule sets the live time and link for a filled break
func (s *Service) Schedule(ctx context.Context, hostID, listingID uuid.UUID, at time.Time, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Seller.ID != hostID {
		return ErrForbidden
	}
	if l.Break.Status != listing.BreakFullPendingSchedule {
		return ErrInvalidTransition
	}
	if !at.After(time.Now()) {
		return ErrInvalidSchedule
	}

	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Break.Status = listing.BreakScheduled
		t := at
		l.Break.ScheduledLiveAt = &t
		l.Break.LiveLink = link
	}); err != nil {
		return err
	}

	log.Info().Str("listing_id", listingID.String()).Time("live_at", at).Msg("Break scheduled")

	s.notifyParticipants(ctx, listingID, "break_scheduled", "Break scheduled",
		fmt.Sprintf("%q goes live at %s", l.Title, at.Format(time.RFC1123)))
	return nil
}

// Start moves a scheduled break live
func (s *Service) Start(ctx context.Context, hostID, listingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Seller.ID != hostID {
		return ErrForbidden
	}
	if l.Break.Status != listing.BreakScheduled {
		return ErrInvalidTransition
	}

	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Break.Status = listing.BreakLive
		now := time.Now()
		l.Break.LiveStartedAt = &now
	}); err != nil {
		return err
	}

	log.Info().Str("listing_id", listingID.String()).Msg("Break live")

	s.notifyParticipants(ctx, listingID, "break_live", "Break is live",
		fmt.Sprintf("%q is live now: %s", l.Title, l.Break.LiveLink))
	return nil
}

// Complete finishes a live break, stores the results and settles all
// authorized entries. An entry whose owner can no longer cover the fee is
// cancelled instead of charged; everything collected is released to the
// host.
func (s *Service) Complete(ctx context.Context, hostID, listingID uuid.UUID, mediaKeys []string, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Seller.ID != hostID {
		return ErrForbidden
	}
	if l.Break.Status != listing.BreakLive {
		return ErrInvalidTransition
	}

	entries, err := s.repo.ListEntriesByListing(ctx, listingID)
	if err != nil {
		return err
	}

	var collected int64
	cancelled := 0
	for _, e := range entries {
		if e.Status != EntryAuthorized {
			continue
		}
		chargeErr := s.ledger.Charge(ctx, e.User.ID, e.Fee,
			fmt.Sprintf("Break entry fee for %q", l.Title), listingID)
		if chargeErr != nil {
			if err := s.repo.UpdateEntryStatus(ctx, e.ID, EntryCancelled); err != nil {
				return err
			}
			cancelled++
			log.Warn().
				Str("entry_id", e.ID.String()).
				Str("user_id", e.User.ID.String()).
				Err(chargeErr).
				Msg("Break entry cancelled at settlement")
			continue
		}
		if err := s.repo.UpdateEntryStatus(ctx, e.ID, EntryCharged); err != nil {
			return err
		}
		collected += e.Fee
	}

	now := time.Now()
	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Break.Status = listing.BreakCompleted
		t := now
		l.Break.LiveEndedAt = &t
		l.Break.ResultsMedia = mediaKeys
		l.Break.ResultsNotes = notes
		l.Break.CurrentParticipants -= cancelled
	}); err != nil {
		return err
	}

	for _, key := range mediaKeys {
		job := &MediaJob{
			ID:        uuid.New(),
			ListingID: listingID,
			ObjectKey: key,
			Status:    MediaPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.EnqueueMediaJob(ctx, job); err != nil {
			log.Error().Err(err).Str("object_key", key).Msg("Failed to enqueue media job")
		}
	}

	if collected > 0 {
		if err := s.ledger.Release(ctx, hostID, collected,
			fmt.Sprintf("Break proceeds for %q", l.Title), listingID); err != nil {
			log.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to release break proceeds")
		} else {
			s.notifier.Emit(ctx, hostID, "funds_released", "Break proceeds released",
				fmt.Sprintf("%d released for %q", collected, l.Title), &listingID)
		}
	}

	log.Info().
		Str("listing_id", listingID.String()).
		Int64("collected", collected).
		Int("cancelled", cancelled).
		Msg("Break completed")

	s.notifyParticipants(ctx, listingID, "break_completed", "Break completed",
		fmt.Sprintf("%q has finished — results are up", l.Title))
	return nil
}

// Cancel aborts any non-terminal break and refunds charged entries. Host or
// admin only.
func (s *Service) Cancel(ctx context.Context, actorID, listingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Seller.ID != actorID {
		actor, err := s.identity.GetByID(ctx, actorID)
		if err != nil || !actor.IsAdmin() {
			return ErrForbidden
		}
	}
	if l.Break.Status.Terminal() {
		return ErrInvalidTransition
	}

	entries, err := s.repo.ListEntriesByListing(ctx, listingID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Status == EntryCharged {
			if err := s.ledger.Release(ctx, e.User.ID, e.Fee,
				fmt.Sprintf("Refund for cancelled break %q", l.Title), listingID); err != nil {
				log.Error().Err(err).Str("entry_id", e.ID.String()).Msg("Failed to refund break entry")
				continue
			}
		}
		if e.Active() {
			if err := s.repo.UpdateEntryStatus(ctx, e.ID, EntryCancelled); err != nil {
				return err
			}
		}
	}

	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Break.Status = listing.BreakCancelled
	}); err != nil {
		return err
	}

	log.Info().Str("listing_id", listingID.String()).Msg("Break cancelled")

	s.notifyParticipants(ctx, listingID, "break_cancelled", "Break cancelled",
		fmt.Sprintf("%q was cancelled; any collected fees were refunded", l.Title))
	return nil
}

// Expire transitions one open break past its close deadline to expired
func (s *Service) Expire(ctx context.Context, listingID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expire(ctx, listingID)
}

func (s *Service) expire(ctx context.Context, listingID uuid.UUID) error {
	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return err
	}
	if l.Break.Status != listing.BreakOpen {
		return ErrInvalidTransition
	}

	entries, err := s.repo.ListEntriesByListing(ctx, listingID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Active() {
			if err := s.repo.UpdateEntryStatus(ctx, e.ID, EntryCancelled); err != nil {
				return err
			}
		}
	}

	if err := s.catalog.Update(ctx, listingID, func(l *listing.Listing) {
		l.Break.Status = listing.BreakExpired
	}); err != nil {
		return err
	}

	log.Info().Str("listing_id", listingID.String()).Msg("Break expired")
	return nil
}

// SweepExpired expires every open break whose close deadline has passed.
// Returns the number of breaks expired; used by the sweep worker.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.catalog.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, l := range catalog {
		if l.Type != listing.TypeTimedBreak || l.Break == nil {
			continue
		}
		if l.Break.Status != listing.BreakOpen || l.Break.ClosesAt == nil || l.Break.ClosesAt.After(now) {
			continue
		}
		if err := s.expire(ctx, l.ID); err != nil {
			log.Error().Err(err).Str("listing_id", l.ID.String()).Msg("Failed to expire break")
			continue
		}
		n++
	}
	return n, nil
}

// RemoveEntry cancels a participation slot. The host may remove any entry
// while the break is non-terminal; the entry's owner may leave unless the
// break is live or terminal. Freeing a spot reverts a filled break to open
// and promotes the waitlist head.
func (s *Service) RemoveEntry(ctx context.Context, actorID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if !e.Active() {
		return ErrEntryNotFound
	}

	l, err := s.getBreak(ctx, e.ListingID)
	if err != nil {
		return err
	}
	switch actorID {
	case l.Seller.ID:
		if l.Break.Status.Terminal() {
			return ErrInvalidTransition
		}
	case e.User.ID:
		// Participants cannot back out once the stream is live.
		if l.Break.Status.Terminal() || l.Break.Status == listing.BreakLive {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}

	if err := s.repo.UpdateEntryStatus(ctx, entryID, EntryCancelled); err != nil {
		return err
	}
	if err := s.catalog.Update(ctx, e.ListingID, func(l *listing.Listing) {
		l.Break.CurrentParticipants--
		if l.Break.Status == listing.BreakFullPendingSchedule {
			l.Break.Status = listing.BreakOpen
		}
	}); err != nil {
		return err
	}

	log.Info().
		Str("entry_id", entryID.String()).
		Str("listing_id", e.ListingID.String()).
		Msg("Break entry removed")

	s.promoteWaitlistHead(ctx, e.ListingID)
	return nil
}

// promoteWaitlistHead fills a freed spot from the waitlist. A promotion
// failure (insufficient funds, entry cap) cancels that waitlist row and
// tries the next.
func (s *Service) promoteWaitlistHead(ctx context.Context, listingID uuid.UUID) {
	queue, err := s.repo.ListWaitlistByListing(ctx, listingID)
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to read waitlist")
		return
	}
	for _, w := range queue {
		if w.Cancelled {
			continue
		}
		if _, err := s.join(ctx, listingID, w.UserID); err != nil {
			if err == ErrBreakFull || err == ErrBreakClosed {
				return
			}
			log.Warn().Err(err).Str("user_id", w.UserID.String()).Msg("Waitlist promotion skipped")
			if err := s.repo.CancelWaitlist(ctx, w.ID); err != nil {
				log.Error().Err(err).Msg("Failed to cancel waitlist row")
			}
			continue
		}
		if err := s.repo.CancelWaitlist(ctx, w.ID); err != nil {
			log.Error().Err(err).Msg("Failed to cancel promoted waitlist row")
		}
		return
	}
}

// JoinWaitlist queues a user for the next freed spot in a full break
func (s *Service) JoinWaitlist(ctx context.Context, listingID, userID uuid.UUID) (*WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.getBreak(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Break.Status.Terminal() {
		return nil, ErrBreakClosed
	}
	if l.Break.CurrentParticipants < l.Break.TargetParticipants {
		return nil, ErrBreakNotFull
	}

	queue, err := s.repo.ListWaitlistByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	for _, w := range queue {
		if !w.Cancelled && w.UserID == userID {
			return nil, ErrAlreadyWaitlisted
		}
	}

	w := &WaitlistEntry{
		ID:        uuid.New(),
		ListingID: listingID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := s.repo.AppendWaitlist(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// WaitlistPosition returns the user's 1-indexed rank among non-cancelled
// waitlist rows
func (s *Service) WaitlistPosition(ctx context.Context, listingID, userID uuid.UUID) (int, error) {
	queue, err := s.repo.ListWaitlistByListing(ctx, listingID)
	if err != nil {
		return 0, err
	}
	pos := 0
	for _, w := range queue {
		if w.Cancelled {
			continue
		}
		pos++
		if w.UserID == userID {
			return pos, nil
		}
	}
	return 0, ErrNotWaitlisted
}

// Entries returns a break's participation ledger in join order
func (s *Service) Entries(ctx context.Context, listingID uuid.UUID) ([]*Entry, error) {
	if _, err := s.getBreak(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.ListEntriesByListing(ctx, listingID)
}

func (s *Service) notifyParticipants(ctx context.Context, listingID uuid.UUID, ntype, title, body string) {
	entries, err := s.repo.ListEntriesByListing(ctx, listingID)
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID.String()).Msg("Failed to load participants for notification")
		return
	}
	seen := make(map[uuid.UUID]bool)
	for _, e := range entries {
		if !e.Active() || seen[e.User.ID] {
			continue
		}
		seen[e.User.ID] = true
		s.notifier.Emit(ctx, e.User.ID, ntype, title, body, &listingID)
	}
}
