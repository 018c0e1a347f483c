package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleCollector Role = "collector"
	RoleSeller    Role = "seller"
	RoleBreaker   Role = "breaker"
	RoleAdmin     Role = "admin"
)

// User represents an identity-provider account as the engine sees it.
// The engine mutates it only through ApplyBalanceDelta and SetFields.
type User struct {
	ID          uuid.UUID `db:"id"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	AvatarURL   string    `db:"avatar_url"`
	Role        Role      `db:"role"`
	Verified    bool      `db:"verified"`
	IsBanned    bool      `db:"is_banned"`

	// Balance is the live wallet balance in cents. It must always equal the
	// balance_after of the user's most recent wallet transaction.
	Balance int64 `db:"balance"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Snapshot is the identity snapshot stamped onto listings, bids and break
// entries at creation time.
type Snapshot struct {
	ID          uuid.UUID `json:"id" db:"-"`
	DisplayName string    `json:"display_name" db:"-"`
	AvatarURL   string    `json:"avatar_url,omitempty" db:"-"`
	Verified    bool      `json:"verified" db:"-"`
}

// Snapshot returns the user's identity snapshot.
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Verified:    u.Verified,
	}
}

// IsAdmin returns true for admin users
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateFields holds optional profile field changes (SetFields contract).
type UpdateFields struct {
	DisplayName *string
	AvatarURL   *string
	Role        *Role
}
