package wallet

import "errors"

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrMissingOwner    = errors.New("wallet requires a user or group owner")
	ErrInvalidCurrency = errors.New("unsupported currency")
	ErrWalletInactive  = errors.New("wallet is not active")
	ErrAlreadyActive   = errors.New("wallet is already active")
)
