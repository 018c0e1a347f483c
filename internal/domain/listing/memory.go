package listing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryRepository keeps the catalog in process memory. Used when no
// DATABASE_URL is configured, and by package tests.
type memoryRepository struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*Listing
}

// NewMemoryRepository creates an in-memory catalog repository
func NewMemoryRepository() Repository {
	return &memoryRepository{listings: make(map[uuid.UUID]*Listing)}
}

func (r *memoryRepository) Create(_ context.Context, l *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = l.Clone()
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return l.Clone(), nil
}

func (r *memoryRepository) Update(_ context.Context, l *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[l.ID]; !ok {
		return ErrNotFound
	}
	l.UpdatedAt = time.Now()
	r.listings[l.ID] = l.Clone()
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]*Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Listing, 0)
	for _, l := range r.listings {
		if l.Seller.ID == sellerID {
			out = append(out, l.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) MarkSold(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return ErrNotFound
	}
	if l.IsSold {
		return ErrAlreadySold
	}
	l.IsSold = true
	l.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepository) UnmarkSold(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.IsSold = false
	l.UpdatedAt = time.Now()
	return nil
}
