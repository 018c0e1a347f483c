package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID][]*Notification // userID -> insertion order
}

// NewMemoryRepository creates an in-memory notification repository
func NewMemoryRepository() Repository {
	return &memoryRepository{notifications: make(map[uuid.UUID][]*Notification)}
}

func (r *memoryRepository) Append(_ context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *n
	r.notifications[n.UserID] = append(r.notifications[n.UserID], &c)
	return nil
}

func (r *memoryRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	src := r.notifications[userID]
	out := make([]*Notification, 0, limit)
	for i := len(src) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		c := *src[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *memoryRepository) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, x := range r.notifications[userID] {
		if !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.notifications[userID] {
		if x.ID == id {
			if !x.IsRead {
				x.IsRead = true
				now := time.Now()
				x.ReadAt = &now
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepository) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, x := range r.notifications[userID] {
		if !x.IsRead {
			x.IsRead = true
			t := now
			x.ReadAt = &t
		}
	}
	return nil
}
