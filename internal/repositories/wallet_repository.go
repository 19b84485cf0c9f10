package repositories

import (
	"context"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository defines wallet persistence operations. AdjustBalance is
// the only balance mutator in the whole codebase; every component moves
// value through it.
type WalletRepository interface {
	// Create fails with ErrDuplicateWallet when a group wallet for the same
	// group and currency already exists.
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	GetUserWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	GetGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error)

	// GetOrCreateGroupWallet returns the group's wallet for the currency,
	// creating an empty active one on first use. Concurrent first uses are
	// serialized by the unique index: the loser re-reads the winner's row.
	GetOrCreateGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error)

	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Wallet, error)

	// AdjustBalance atomically applies balance += delta under the guard
	// "active wallet and resulting balance >= 0". It never reads the balance
	// into application code first, so concurrent adjustments cannot race.
	// Fails with ErrWalletNotFound, ErrWalletInactive or ErrInsufficientFunds.
	AdjustBalance(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) (*models.Wallet, error)

	UpdateStatus(ctx context.Context, walletID uuid.UUID, status, reason string) (*models.Wallet, error)
}
