package wallet

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotDirectSale     = errors.New("listing is not a direct sale")
	ErrOwnListing        = errors.New("cannot buy your own listing")
)
