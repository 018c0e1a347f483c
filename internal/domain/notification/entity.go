package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeNewBid         Type = "new_bid"         // Seller: someone bid on their auction
	TypeSale           Type = "sale"            // Seller: direct sale completed
	TypeBreakFull      Type = "break_full"      // Host: break reached capacity
	TypeBreakScheduled Type = "break_scheduled" // Participants: live time set
	TypeBreakLive      Type = "break_live"      // Participants: stream started
	TypeBreakCompleted Type = "break_completed" // Participants: results posted
	TypeBreakCancelled Type = "break_cancelled" // Participants: break aborted
	TypeFundsReleased  Type = "funds_released"  // Host: break proceeds released
)

// Notification represents a user notification. LinkTo points at the listing
// the event concerns, when there is one.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Type      Type       `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body,omitempty"`
	LinkTo    *uuid.UUID `db:"link_to" json:"link_to,omitempty"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
