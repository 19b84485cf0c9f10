package ledger

import (
	"context"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest moves value from one wallet to another.
type TransferRequest struct {
	InitiatorUserID     uuid.UUID              `json:"-"`
	SourceWalletID      uuid.UUID              `json:"source_wallet_id"`
	DestinationWalletID uuid.UUID              `json:"destination_wallet_id"`
	Amount              decimal.Decimal        `json:"amount"`
	Type                string                 `json:"transaction_type"`
	Description         string                 `json:"description"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// CreditRequest issues value into a wallet from outside the ledger, with no
// source wallet to debit. Used for purchase fulfillment and event rewards.
type CreditRequest struct {
	InitiatorUserID     *uuid.UUID             `json:"-"`
	DestinationWalletID uuid.UUID              `json:"destination_wallet_id"`
	Amount              decimal.Decimal        `json:"amount"`
	Type                string                 `json:"transaction_type"`
	Description         string                 `json:"description"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// HistoryEntry is a transaction as seen from one wallet's point of view:
// Amount is negative when the wallet was the source.
type HistoryEntry struct {
	*models.Transaction
	SignedAmount decimal.Decimal `json:"signed_amount"`
}

// CacheInvalidator evicts cached wallet reads after a balance mutation.
type CacheInvalidator interface {
	InvalidateWallet(ctx context.Context, walletID uuid.UUID) error
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateWallet(context.Context, uuid.UUID) error { return nil }
