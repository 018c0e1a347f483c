package breaks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu       sync.RWMutex
	entries  map[uuid.UUID]*Entry
	waitlist map[uuid.UUID]*WaitlistEntry
	media    map[uuid.UUID]*MediaJob
}

// NewMemoryRepository creates an in-memory break repository
func NewMemoryRepository() Repository {
	return &memoryRepository{
		entries:  make(map[uuid.UUID]*Entry),
		waitlist: make(map[uuid.UUID]*WaitlistEntry),
		media:    make(map[uuid.UUID]*MediaJob),
	}
}

func (r *memoryRepository) AppendEntry(_ context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *e
	r.entries[e.ID] = &c
	return nil
}

func (r *memoryRepository) GetEntry(_ context.Context, id uuid.UUID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	c := *e
	return &c, nil
}

func (r *memoryRepository) UpdateEntryStatus(_ context.Context, id uuid.UUID, status EntryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	e.Status = status
	return nil
}

func (r *memoryRepository) ListEntriesByListing(_ context.Context, listingID uuid.UUID) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0)
	for _, e := range r.entries {
		if e.ListingID == listingID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *memoryRepository) CountActiveEntriesByUser(_ context.Context, listingID, userID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.ListingID == listingID && e.User.ID == userID && e.Active() {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) AppendWaitlist(_ context.Context, w *WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *w
	r.waitlist[w.ID] = &c
	return nil
}

func (r *memoryRepository) ListWaitlistByListing(_ context.Context, listingID uuid.UUID) ([]*WaitlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*WaitlistEntry, 0)
	for _, w := range r.waitlist {
		if w.ListingID == listingID {
			c := *w
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *memoryRepository) CancelWaitlist(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.waitlist[id]
	if !ok {
		return ErrNotWaitlisted
	}
	w.Cancelled = true
	return nil
}

func (r *memoryRepository) EnqueueMediaJob(_ context.Context, job *MediaJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *job
	r.media[job.ID] = &c
	return nil
}

func (r *memoryRepository) ClaimMediaJob(_ context.Context) (*MediaJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *MediaJob
	for _, j := range r.media {
		claimable := j.Status == MediaPending || (j.Status == MediaFailed && j.Attempts < 3)
		if !claimable {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, nil
	}
	oldest.Status = MediaProcessing
	oldest.Attempts++
	oldest.UpdatedAt = time.Now()
	c := *oldest
	return &c, nil
}

func (r *memoryRepository) FinishMediaJob(_ context.Context, job *MediaJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.media[job.ID]
	if !ok {
		return ErrEntryNotFound
	}
	j.Status = job.Status
	j.Width = job.Width
	j.Height = job.Height
	j.Error = job.Error
	j.UpdatedAt = time.Now()
	return nil
}
