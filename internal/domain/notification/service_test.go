package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestEmitAndReadStateLifecycle(t *testing.T) {
	svc := NewService(NewMemoryRepository(), nil)
	ctx := context.Background()
	userID := uuid.New()
	listingID := uuid.New()

	svc.Emit(ctx, userID, "new_bid", "New bid on your auction", "someone bid 1500", &listingID)
	svc.Emit(ctx, userID, "sale", "Your listing sold", "", &listingID)
	svc.Emit(ctx, uuid.New(), "break_full", "Your break is full", "", nil)

	notifications, err := svc.ListByUser(ctx, userID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notifications))
	}
	// Newest first.
	if notifications[0].Type != TypeSale || notifications[1].Type != TypeNewBid {
		t.Fatalf("order wrong: %s then %s", notifications[0].Type, notifications[1].Type)
	}
	if notifications[1].LinkTo == nil || *notifications[1].LinkTo != listingID {
		t.Fatal("LinkTo not stored")
	}

	unread, _ := svc.UnreadCount(ctx, userID)
	if unread != 2 {
		t.Fatalf("unread = %d, want 2", unread)
	}

	if err := svc.MarkRead(ctx, userID, notifications[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Marking twice is a no-op.
	if err := svc.MarkRead(ctx, userID, notifications[0].ID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	unread, _ = svc.UnreadCount(ctx, userID)
	if unread != 1 {
		t.Fatalf("unread after mark = %d, want 1", unread)
	}

	if err := svc.MarkRead(ctx, userID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing mark: want ErrNotFound, got %v", err)
	}

	if err := svc.MarkAllRead(ctx, userID); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	unread, _ = svc.UnreadCount(ctx, userID)
	if unread != 0 {
		t.Fatalf("unread after mark-all = %d, want 0", unread)
	}

	got, _ := svc.ListByUser(ctx, userID, 10, 0)
	for _, n := range got {
		if !n.IsRead || n.ReadAt == nil {
			t.Fatalf("notification %s not read-stamped", n.ID)
		}
	}
}
