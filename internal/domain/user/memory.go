package user

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// memoryRepository is the in-memory Repository used by tests and the
// database-less dev mode.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
}

// NewMemoryRepository creates an in-memory user repository
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[uuid.UUID]*User)}
}

func (r *memoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryRepository) Upsert(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[u.ID]; ok {
		existing.DisplayName = u.DisplayName
		existing.AvatarURL = u.AvatarURL
		existing.Verified = u.Verified
		existing.IsBanned = u.IsBanned
		existing.UpdatedAt = u.UpdatedAt
		return nil
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *memoryRepository) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return 0, ErrNotFound
	}
	u.Balance += delta
	return u.Balance, nil
}

func (r *memoryRepository) SetFields(ctx context.Context, id uuid.UUID, fields UpdateFields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if fields.DisplayName != nil {
		u.DisplayName = *fields.DisplayName
	}
	if fields.AvatarURL != nil {
		u.AvatarURL = *fields.AvatarURL
	}
	if fields.Role != nil {
		u.Role = *fields.Role
	}
	return nil
}
