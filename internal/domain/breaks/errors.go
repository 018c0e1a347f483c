package breaks

import "errors"

var (
	ErrNotBreak          = errors.New("listing is not a timed break")
	ErrBreakClosed       = errors.New("break is not open for entries")
	ErrBreakFull         = errors.New("break is at capacity")
	ErrBreakNotFull      = errors.New("break is not at capacity")
	ErrEntryLimit        = errors.New("per-user entry limit reached")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidTransition = errors.New("invalid break status transition")
	ErrInvalidSchedule   = errors.New("scheduled time must be in the future")
	ErrForbidden         = errors.New("not allowed to manage this break")
	ErrNotWaitlisted     = errors.New("user is not on the waitlist")
	ErrInsufficientFunds = errors.New("insufficient funds to join break")
	ErrAlreadyWaitlisted = errors.New("user is already on the waitlist")
)
