// Package repositories provides the data access layer. The canonical
// implementation persists to PostgreSQL through GORM; everything above it
// talks to the Store interface so the persistence adapter can be swapped.
package repositories

import "errors"

var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrDuplicateWallet        = errors.New("group wallet already exists")
	ErrWalletInactive         = errors.New("wallet is not active")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrRuleNotFound           = errors.New("exchange rule not found")
	ErrTrustScoreNotFound     = errors.New("trust score not found")
	ErrEventNotFound          = errors.New("event not found")
	ErrParticipationNotFound  = errors.New("participation not found")
	ErrDuplicateParticipation = errors.New("wallet already registered for event")
	ErrRequestNotFound        = errors.New("payment request not found")
)

// Store aggregates the per-entity repositories over one backing database.
// A Store obtained inside ExecuteInTransaction is scoped to that storage
// transaction; any error returned from fn rolls back everything fn did.
type Store interface {
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Exchange() ExchangeRepository
	Events() EventRepository
	PaymentRequests() PaymentRequestRepository

	ExecuteInTransaction(fn func(Store) error) error
}
