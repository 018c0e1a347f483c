package bid

import "errors"

var (
	ErrNotAuction        = errors.New("listing is not an auction")
	ErrListingClosed     = errors.New("auction is closed")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrInsufficientFunds = errors.New("insufficient funds to cover bid")
)
