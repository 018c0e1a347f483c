package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu  sync.RWMutex
	txs map[uuid.UUID][]*Transaction // userID -> insertion order
}

// NewMemoryRepository creates an in-memory wallet ledger
func NewMemoryRepository() Repository {
	return &memoryRepository{txs: make(map[uuid.UUID][]*Transaction)}
}

func (r *memoryRepository) Append(_ context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *tx
	r.txs[tx.UserID] = append(r.txs[tx.UserID], &c)
	return nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	src := r.txs[userID]
	// Newest first.
	out := make([]*Transaction, 0, limit)
	for i := len(src) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		c := *src[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *memoryRepository) LatestByUser(_ context.Context, userID uuid.UUID) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.txs[userID]
	if len(src) == 0 {
		return nil, nil
	}
	c := *src[len(src)-1]
	return &c, nil
}
