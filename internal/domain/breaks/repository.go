package breaks

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/breakhouse/breakhouse-api/internal/domain/user"
)

// Repository persists break entries, the waitlist and media jobs
type Repository interface {
	AppendEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	UpdateEntryStatus(ctx context.Context, id uuid.UUID, status EntryStatus) error
	ListEntriesByListing(ctx context.Context, listingID uuid.UUID) ([]*Entry, error)
	CountActiveEntriesByUser(ctx context.Context, listingID, userID uuid.UUID) (int, error)

	AppendWaitlist(ctx context.Context, w *WaitlistEntry) error
	ListWaitlistByListing(ctx context.Context, listingID uuid.UUID) ([]*WaitlistEntry, error)
	CancelWaitlist(ctx context.Context, id uuid.UUID) error

	EnqueueMediaJob(ctx context.Context, job *MediaJob) error
	ClaimMediaJob(ctx context.Context) (*MediaJob, error)
	FinishMediaJob(ctx context.Context, job *MediaJob) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed break repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type entryRow struct {
	ID           uuid.UUID   `db:"id"`
	ListingID    uuid.UUID   `db:"listing_id"`
	UserID       uuid.UUID   `db:"user_id"`
	UserName     string      `db:"user_name"`
	UserAvatar   string      `db:"user_avatar"`
	UserVerified bool        `db:"user_verified"`
	Status       EntryStatus `db:"status"`
	Fee          int64       `db:"fee"`
	JoinedAt     time.Time   `db:"joined_at"`
}

func (row *entryRow) toEntity() *Entry {
	return &Entry{
		ID:        row.ID,
		ListingID: row.ListingID,
		User: user.Snapshot{
			ID:          row.UserID,
			DisplayName: row.UserName,
			AvatarURL:   row.UserAvatar,
			Verified:    row.UserVerified,
		},
		Status:   row.Status,
		Fee:      row.Fee,
		JoinedAt: row.JoinedAt,
	}
}

func (r *repository) AppendEntry(ctx context.Context, e *Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO break_entries (id, listing_id, user_id, user_name, user_avatar, user_verified, status, fee, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.ListingID, e.User.ID, e.User.DisplayName, e.User.AvatarURL, e.User.Verified, e.Status, e.Fee, e.JoinedAt)
	return err
}

func (r *repository) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	var row entryRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, listing_id, user_id, user_name, user_avatar, user_verified, status, fee, joined_at
		FROM break_entries WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *repository) UpdateEntryStatus(ctx context.Context, id uuid.UUID, status EntryStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE break_entries SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *repository) ListEntriesByListing(ctx context.Context, listingID uuid.UUID) ([]*Entry, error) {
	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, listing_id, user_id, user_name, user_avatar, user_verified, status, fee, joined_at
		FROM break_entries WHERE listing_id = $1 ORDER BY joined_at ASC
	`, listingID)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *repository) CountActiveEntriesByUser(ctx context.Context, listingID, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM break_entries
		WHERE listing_id = $1 AND user_id = $2 AND status != 'cancelled'
	`, listingID, userID)
	return n, err
}

func (r *repository) AppendWaitlist(ctx context.Context, w *WaitlistEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO break_waitlist (id, listing_id, user_id, joined_at, cancelled)
		VALUES ($1, $2, $3, $4, $5)
	`, w.ID, w.ListingID, w.UserID, w.JoinedAt, w.Cancelled)
	return err
}

func (r *repository) ListWaitlistByListing(ctx context.Context, listingID uuid.UUID) ([]*WaitlistEntry, error) {
	var out []*WaitlistEntry
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, listing_id, user_id, joined_at, cancelled
		FROM break_waitlist WHERE listing_id = $1 ORDER BY joined_at ASC
	`, listingID)
	return out, err
}

func (r *repository) CancelWaitlist(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE break_waitlist SET cancelled = TRUE WHERE id = $1`, id)
	return err
}

func (r *repository) EnqueueMediaJob(ctx context.Context, job *MediaJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO break_media (id, listing_id, object_key, mime_type, status, attempts, width, height, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, job.ID, job.ListingID, job.ObjectKey, job.MimeType, job.Status, job.Attempts, job.Width, job.Height, job.Error, job.CreatedAt, job.UpdatedAt)
	return err
}

// ClaimMediaJob atomically moves one pending job to processing. Returns
// nil, nil when the queue is empty.
func (r *repository) ClaimMediaJob(ctx context.Context) (*MediaJob, error) {
	var job MediaJob
	err := r.db.GetContext(ctx, &job, `
		UPDATE break_media SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM break_media
			WHERE status = 'pending' OR (status = 'failed' AND attempts < 3)
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, listing_id, object_key, mime_type, status, attempts, width, height, error, created_at, updated_at
	`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *repository) FinishMediaJob(ctx context.Context, job *MediaJob) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE break_media SET status = $2, width = $3, height = $4, error = $5, updated_at = NOW()
		WHERE id = $1
	`, job.ID, job.Status, job.Width, job.Height, job.Error)
	return err
}
