package listing

import "errors"

var (
	ErrNotFound           = errors.New("listing not found")
	ErrAlreadySold        = errors.New("listing already sold")
	ErrForbidden          = errors.New("not the listing owner")
	ErrInvalidBreakConfig = errors.New("invalid break configuration")
)
