package breaks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/domain/user"
	"github.com/breakhouse/breakhouse-api/internal/domain/wallet"
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

func (f *fakeNotifier) byType(ntype string) []recordedEmit {
	var out []recordedEmit
	for _, e := range f.emits {
		if e.Type == ntype {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	users    *user.Service
	catalog  *listing.Service
	wallet   *wallet.Service
	notifier *fakeNotifier
	host     *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	notifier := &fakeNotifier{}
	users := user.NewService(user.NewMemoryRepository())
	catalog := listing.NewService(listing.NewMemoryRepository(), users)
	wallets := wallet.NewService(wallet.NewMemoryRepository(), users, catalog, notifier)
	svc := NewService(NewMemoryRepository(), catalog, users, wallets, notifier)

	host, err := users.EnsureUser(context.Background(), uuid.New(), "host@example.com", "host", "", "breaker", true)
	if err != nil {
		t.Fatalf("ensure host: %v", err)
	}

	return &fixture{svc: svc, users: users, catalog: catalog, wallet: wallets, notifier: notifier, host: host}
}

func (f *fixture) newUser(t *testing.T, name string, balance int64) *user.User {
	t.Helper()
	u, err := f.users.EnsureUser(context.Background(), uuid.New(), name+"@example.com", name, "", "collector", true)
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if balance > 0 {
		if _, err := f.wallet.Deposit(context.Background(), u.ID, balance); err != nil {
			t.Fatalf("seed deposit: %v", err)
		}
	}
	return u
}

func (f *fixture) newBreak(t *testing.T, fee int64, target, maxPerUser int) *listing.Listing {
	t.Helper()
	closes := time.Now().Add(72 * time.Hour)
	l, err := f.catalog.Create(context.Background(), f.host.ID, &listing.CreateListingRequest{
		Type:               string(listing.TypeTimedBreak),
		Title:              "Surging Sparks Booster Box Break",
		Price:              fee,
		TargetParticipants: target,
		MaxEntriesPerUser:  maxPerUser,
		ClosesAt:           &closes,
	})
	if err != nil {
		t.Fatalf("create break: %v", err)
	}
	return l
}

func (f *fixture) status(t *testing.T, id uuid.UUID) listing.BreakStatus {
	t.Helper()
	l, err := f.catalog.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	return l.Break.Status
}

func TestJoinFillsBreakAndTransitionsExactlyAtCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 25_00, 3, 1)

	for i, name := range []string{"ash", "misty"} {
		u := f.newUser(t, name, 100_00)
		if _, err := f.svc.Join(ctx, l.ID, u.ID); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		if got := f.status(t, l.ID); got != listing.BreakOpen {
			t.Fatalf("after join %d: status %s, want open", i, got)
		}
	}

	// The filling join flips the status.
	brock := f.newUser(t, "brock", 100_00)
	if _, err := f.svc.Join(ctx, l.ID, brock.ID); err != nil {
		t.Fatalf("filling join: %v", err)
	}
	if got := f.status(t, l.ID); got != listing.BreakFullPendingSchedule {
		t.Fatalf("after fill: status %s, want full_pending_schedule", got)
	}

	full := f.notifier.byType("break_full")
	if len(full) != 1 || full[0].UserID != f.host.ID {
		t.Fatalf("break_full notification = %+v", full)
	}

	// One more join bounces.
	late := f.newUser(t, "gary", 100_00)
	if _, err := f.svc.Join(ctx, l.ID, late.ID); !errors.Is(err, ErrBreakFull) {
		t.Fatalf("overfull join: want ErrBreakFull, got %v", err)
	}

	got, _ := f.catalog.GetByID(ctx, l.ID)
	if got.Break.CurrentParticipants != 3 {
		t.Fatalf("CurrentParticipants = %d, want 3", got.Break.CurrentParticipants)
	}
}

func TestJoinEnforcesPerUserEntryCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 10_00, 5, 2)
	u := f.newUser(t, "collector", 100_00)

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Join(ctx, l.ID, u.ID); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := f.svc.Join(ctx, l.ID, u.ID); !errors.Is(err, ErrEntryLimit) {
		t.Fatalf("third join: want ErrEntryLimit, got %v", err)
	}
}

func TestJoinRequiresOpenStatusAndFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 50_00, 2, 1)

	poor := f.newUser(t, "poor", 10_00)
	if _, err := f.svc.Join(ctx, l.ID, poor.ID); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("underfunded join: want ErrInsufficientFunds, got %v", err)
	}

	a := f.newUser(t, "a", 100_00)
	b := f.newUser(t, "b", 100_00)
	for _, u := range []*user.User{a, b} {
		if _, err := f.svc.Join(ctx, l.ID, u.ID); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	c := f.newUser(t, "c", 100_00)
	if _, err := f.svc.Join(ctx, l.ID, c.ID); !errors.Is(err, ErrBreakFull) {
		t.Fatalf("full join: want ErrBreakFull, got %v", err)
	}

	direct, _ := f.catalog.Create(ctx, f.host.ID, &listing.CreateListingRequest{
		Type:  string(listing.TypeDirectSale),
		Title: "Not a break",
		Price: 5_00,
	})
	if _, err := f.svc.Join(ctx, direct.ID, c.ID); !errors.Is(err, ErrNotBreak) {
		t.Fatalf("non-break join: want ErrNotBreak, got %v", err)
	}
}

func TestScheduleStartCompleteLifecycleSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 25_00, 2, 1)

	ash := f.newUser(t, "ash", 100_00)
	misty := f.newUser(t, "misty", 100_00)
	for _, u := range []*user.User{ash, misty} {
		if _, err := f.svc.Join(ctx, l.ID, u.ID); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	liveAt := time.Now().Add(2 * time.Hour)

	// Only the host may schedule, and only from full_pending_schedule.
	if err := f.svc.Schedule(ctx, ash.ID, l.ID, liveAt, "https://stream.example/s1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-host schedule: want ErrForbidden, got %v", err)
	}
	if err := f.svc.Schedule(ctx, f.host.ID, l.ID, time.Now().Add(-time.Hour), "https://stream.example/s1"); !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("past schedule: want ErrInvalidSchedule, got %v", err)
	}
	if err := f.svc.Start(ctx, f.host.ID, l.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("start before schedule: want ErrInvalidTransition, got %v", err)
	}

	if err := f.svc.Schedule(ctx, f.host.ID, l.ID, liveAt, "https://stream.example/s1"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if got := f.status(t, l.ID); got != listing.BreakScheduled {
		t.Fatalf("status %s, want scheduled", got)
	}
	if len(f.notifier.byType("break_scheduled")) != 2 {
		t.Fatalf("break_scheduled emits = %d, want 2", len(f.notifier.byType("break_scheduled")))
	}

	if err := f.svc.Start(ctx, f.host.ID, l.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.status(t, l.ID); got != listing.BreakLive {
		t.Fatalf("status %s, want live", got)
	}

	if err := f.svc.Complete(ctx, f.host.ID, l.ID, []string{"breaks/x/results/1.jpg"}, "Chase card pulled!"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := f.status(t, l.ID); got != listing.BreakCompleted {
		t.Fatalf("status %s, want completed", got)
	}

	// Fees moved: both entries charged, proceeds released to the host.
	for _, u := range []*user.User{ash, misty} {
		balance, _ := f.wallet.Balance(ctx, u.ID)
		if balance != 75_00 {
			t.Fatalf("%s balance = %d, want 7500", u.DisplayName, balance)
		}
	}
	hostBalance, _ := f.wallet.Balance(ctx, f.host.ID)
	if hostBalance != 50_00 {
		t.Fatalf("host balance = %d, want 5000", hostBalance)
	}

	entries, _ := f.svc.Entries(ctx, l.ID)
	for _, e := range entries {
		if e.Status != EntryCharged {
			t.Fatalf("entry %s status = %s, want charged", e.ID, e.Status)
		}
	}

	got, _ := f.catalog.GetByID(ctx, l.ID)
	if got.Break.ResultsNotes != "Chase card pulled!" || len(got.Break.ResultsMedia) != 1 {
		t.Fatalf("results not stored: %+v", got.Break)
	}
	if got.Break.LiveStartedAt == nil || got.Break.LiveEndedAt == nil {
		t.Fatal("live timestamps not stamped")
	}

	// Completed is terminal.
	if err := f.svc.Cancel(ctx, f.host.ID, l.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel after completion: want ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteCancelsEntriesThatCannotPay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 25_00, 2, 1)

	rich := f.newUser(t, "rich", 100_00)
	broke := f.newUser(t, "broke", 25_00)
	for _, u := range []*user.User{rich, broke} {
		if _, err := f.svc.Join(ctx, l.ID, u.ID); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	// The fee was only authorized; the participant drains their wallet
	// before settlement.
	if _, err := f.wallet.Withdraw(ctx, broke.ID, 25_00); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if err := f.svc.Schedule(ctx, f.host.ID, l.ID, time.Now().Add(time.Hour), "https://stream.example/s2"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.svc.Start(ctx, f.host.ID, l.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.Complete(ctx, f.host.ID, l.ID, nil, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	entries, _ := f.svc.Entries(ctx, l.ID)
	statuses := map[uuid.UUID]EntryStatus{}
	for _, e := range entries {
		statuses[e.User.ID] = e.Status
	}
	if statuses[rich.ID] != EntryCharged {
		t.Fatalf("funded entry = %s, want charged", statuses[rich.ID])
	}
	if statuses[broke.ID] != EntryCancelled {
		t.Fatalf("unfunded entry = %s, want cancelled", statuses[broke.ID])
	}

	// Only the collectable fee reached the host.
	hostBalance, _ := f.wallet.Balance(ctx, f.host.ID)
	if hostBalance != 25_00 {
		t.Fatalf("host balance = %d, want 2500", hostBalance)
	}
}

func TestCancelFromNonTerminalNotifiesParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 10_00, 3, 1)

	u := f.newUser(t, "solo", 50_00)
	if _, err := f.svc.Join(ctx, l.ID, u.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	// A stranger cannot cancel; an admin can.
	stranger := f.newUser(t, "stranger", 0)
	if err := f.svc.Cancel(ctx, stranger.ID, l.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cancel: want ErrForbidden, got %v", err)
	}

	admin, err := f.users.EnsureUser(ctx, uuid.New(), "admin@example.com", "admin", "", "admin", true)
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := f.svc.Cancel(ctx, admin.ID, l.ID); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}

	if got := f.status(t, l.ID); got != listing.BreakCancelled {
		t.Fatalf("status %s, want cancelled", got)
	}
	if len(f.notifier.byType("break_cancelled")) != 1 {
		t.Fatal("participant not notified of cancellation")
	}

	// No money ever moved: entries were only authorized.
	balance, _ := f.wallet.Balance(ctx, u.ID)
	if balance != 50_00 {
		t.Fatalf("cancelled break moved money: balance = %d", balance)
	}
}

func TestRemoveEntryRevertsFullAndPromotesWaitlist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 10_00, 2, 1)

	a := f.newUser(t, "a", 50_00)
	b := f.newUser(t, "b", 50_00)
	entryA, err := f.svc.Join(ctx, l.ID, a.ID)
	if err != nil {
		t.Fatalf("join a: %v", err)
	}
	if _, err := f.svc.Join(ctx, l.ID, b.ID); err != nil {
		t.Fatalf("join b: %v", err)
	}
	if got := f.status(t, l.ID); got != listing.BreakFullPendingSchedule {
		t.Fatalf("status %s, want full_pending_schedule", got)
	}

	// Waitlist opens once full.
	w := f.newUser(t, "waiting", 50_00)
	if _, err := f.svc.JoinWaitlist(ctx, l.ID, w.ID); err != nil {
		t.Fatalf("join waitlist: %v", err)
	}
	if pos, err := f.svc.WaitlistPosition(ctx, l.ID, w.ID); err != nil || pos != 1 {
		t.Fatalf("waitlist position = %d, %v; want 1", pos, err)
	}

	// Owner leaves; the waitlisted user takes the spot and the break fills
	// right back up.
	if err := f.svc.RemoveEntry(ctx, a.ID, entryA.ID); err != nil {
		t.Fatalf("remove entry: %v", err)
	}

	got, _ := f.catalog.GetByID(ctx, l.ID)
	if got.Break.CurrentParticipants != 2 {
		t.Fatalf("CurrentParticipants = %d, want 2 after promotion", got.Break.CurrentParticipants)
	}
	if got.Break.Status != listing.BreakFullPendingSchedule {
		t.Fatalf("status %s, want full_pending_schedule after promotion", got.Break.Status)
	}

	entries, _ := f.svc.Entries(ctx, l.ID)
	active := map[uuid.UUID]bool{}
	for _, e := range entries {
		if e.Active() {
			active[e.User.ID] = true
		}
	}
	if active[a.ID] || !active[b.ID] || !active[w.ID] {
		t.Fatalf("active participants = %v, want b and the promoted waitlister", active)
	}

	if _, err := f.svc.WaitlistPosition(ctx, l.ID, w.ID); !errors.Is(err, ErrNotWaitlisted) {
		t.Fatalf("promoted user still waitlisted: %v", err)
	}
}

func TestRemoveEntryWithoutWaitlistReopensBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 10_00, 2, 1)

	a := f.newUser(t, "a", 50_00)
	b := f.newUser(t, "b", 50_00)
	entryA, _ := f.svc.Join(ctx, l.ID, a.ID)
	if _, err := f.svc.Join(ctx, l.ID, b.ID); err != nil {
		t.Fatalf("join b: %v", err)
	}

	stranger := f.newUser(t, "stranger", 0)
	if err := f.svc.RemoveEntry(ctx, stranger.ID, entryA.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger removal: want ErrForbidden, got %v", err)
	}

	if err := f.svc.RemoveEntry(ctx, a.ID, entryA.ID); err != nil {
		t.Fatalf("remove entry: %v", err)
	}

	got, _ := f.catalog.GetByID(ctx, l.ID)
	if got.Break.Status != listing.BreakOpen || got.Break.CurrentParticipants != 1 {
		t.Fatalf("break = %s/%d, want open/1", got.Break.Status, got.Break.CurrentParticipants)
	}
}

func TestWaitlistRequiresFullBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.newBreak(t, 10_00, 3, 1)
	u := f.newUser(t, "eager", 50_00)

	if _, err := f.svc.JoinWaitlist(ctx, l.ID, u.ID); !errors.Is(err, ErrBreakNotFull) {
		t.Fatalf("waitlist on open break: want ErrBreakNotFull, got %v", err)
	}
}

func TestSweepExpiredOnlyPastDeadlineOpenBreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	expired, err := f.catalog.Create(ctx, f.host.ID, &listing.CreateListingRequest{
		Type:               string(listing.TypeTimedBreak),
		Title:              "Stale break",
		Price:              10_00,
		TargetParticipants: 5,
		ClosesAt:           &past,
	})
	if err != nil {
		t.Fatalf("create stale break: %v", err)
	}
	fresh := f.newBreak(t, 10_00, 5, 1)

	u := f.newUser(t, "joiner", 50_00)
	if _, err := f.svc.Join(ctx, expired.ID, u.ID); err != nil {
		t.Fatalf("join stale break: %v", err)
	}

	n, err := f.svc.SweepExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d breaks, want 1", n)
	}

	if got := f.status(t, expired.ID); got != listing.BreakExpired {
		t.Fatalf("stale break status %s, want expired", got)
	}
	if got := f.status(t, fresh.ID); got != listing.BreakOpen {
		t.Fatalf("fresh break status %s, want open", got)
	}

	// Entries released with no money moved.
	entries, _ := f.svc.Entries(ctx, expired.ID)
	if len(entries) != 1 || entries[0].Status != EntryCancelled {
		t.Fatalf("stale entries = %+v, want one cancelled", entries)
	}
	balance, _ := f.wallet.Balance(ctx, u.ID)
	if balance != 50_00 {
		t.Fatalf("expiry moved money: balance = %d", balance)
	}
}
