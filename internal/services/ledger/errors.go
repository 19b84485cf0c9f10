package ledger

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletInactive      = errors.New("wallet is not active")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrCurrencyMismatch    = errors.New("wallet currencies do not match")
	ErrSameWallet          = errors.New("source and destination wallets are identical")
	ErrNotPending          = errors.New("transaction is no longer pending")
	ErrNotOwner            = errors.New("transaction does not belong to this user")
	ErrRetriesExhausted    = errors.New("settlement retries exhausted")
)
