package wallet

import (
	"context"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWalletRequest carries the inputs for wallet creation. At least one
// owner must be set; a wallet with only OwnerGroupID is a group-operated
// wallet with no personal owner.
type CreateWalletRequest struct {
	OwnerUserID  *uuid.UUID `json:"owner_user_id,omitempty"`
	OwnerGroupID *uuid.UUID `json:"owner_group_id,omitempty"`
	Currency     string     `json:"currency"`
}

// Balance is the two-part balance view: Confirmed is the stored balance,
// Available subtracts outstanding PENDING outgoing transactions.
type Balance struct {
	WalletID  uuid.UUID       `json:"wallet_id"`
	Confirmed decimal.Decimal `json:"confirmed_balance"`
	Available decimal.Decimal `json:"available_balance"`
}

// CacheOperator is the wallet read cache.
type CacheOperator interface {
	GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, bool)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, walletID uuid.UUID) error
}

type nopCache struct{}

func (nopCache) GetWallet(context.Context, uuid.UUID) (*models.Wallet, bool) { return nil, false }
func (nopCache) SetWallet(context.Context, *models.Wallet) error             { return nil }
func (nopCache) InvalidateWallet(context.Context, uuid.UUID) error           { return nil }
