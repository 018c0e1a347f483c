package bid

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu   sync.RWMutex
	bids map[uuid.UUID][]*Bid // listingID -> insertion order
}

// NewMemoryRepository creates an in-memory bid ledger
func NewMemoryRepository() Repository {
	return &memoryRepository{bids: make(map[uuid.UUID][]*Bid)}
}

func (r *memoryRepository) Append(_ context.Context, b *Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *b
	r.bids[b.ListingID] = append(r.bids[b.ListingID], &c)
	return nil
}

func (r *memoryRepository) ListByListing(_ context.Context, listingID uuid.UUID) ([]*Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.bids[listingID]
	out := make([]*Bid, len(src))
	for i, b := range src {
		c := *b
		out[i] = &c
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

func (r *memoryRepository) CountByListing(_ context.Context, listingID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bids[listingID]), nil
}
