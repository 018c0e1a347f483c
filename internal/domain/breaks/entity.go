package breaks

import (
	"time"

	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// EntryStatus tracks a participation slot through settlement
type EntryStatus string

const (
	EntryAuthorized EntryStatus = "authorized" // slot held, fee not yet moved
	EntryCharged    EntryStatus = "charged"    // fee collected at completion
	EntryCancelled  EntryStatus = "cancelled"  // slot freed or refunded
)

// Entry is a participation slot in a timed break. Non-cancelled entries per
// listing never exceed the break's target and always equal the listing's
// CurrentParticipants counter.
type Entry struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	ListingID uuid.UUID     `db:"listing_id" json:"listing_id"`
	User      user.Snapshot `json:"user"`
	Status    EntryStatus   `db:"status" json:"status"`
	Fee       int64         `db:"fee" json:"fee"`
	JoinedAt  time.Time     `db:"joined_at" json:"joined_at"`
}

// Active reports whether the entry still occupies a slot
func (e *Entry) Active() bool {
	return e.Status != EntryCancelled
}

// WaitlistEntry queues a user for a spot in a full break. Position is the
// 1-indexed rank among non-cancelled rows ordered by join time.
type WaitlistEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ListingID uuid.UUID `db:"listing_id" json:"listing_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
	Cancelled bool      `db:"cancelled" json:"cancelled"`
}

// MediaStatus tracks results-media post-processing
type MediaStatus string

const (
	MediaPending    MediaStatus = "pending"
	MediaProcessing MediaStatus = "processing"
	MediaDone       MediaStatus = "done"
	MediaFailed     MediaStatus = "failed"
)

// MediaJob is a results-media post-processing row consumed by the media
// worker.
type MediaJob struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	ListingID uuid.UUID   `db:"listing_id" json:"listing_id"`
	ObjectKey string      `db:"object_key" json:"object_key"`
	MimeType  string      `db:"mime_type" json:"mime_type"`
	Status    MediaStatus `db:"status" json:"status"`
	Attempts  int         `db:"attempts" json:"attempts"`
	Width     int         `db:"width" json:"width"`
	Height    int         `db:"height" json:"height"`
	Error     string      `db:"error" json:"error,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}
