package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supported wallet currencies. The currency is fixed when the wallet is
// created; stored balances are never reinterpreted in another currency.
const (
	CurrencyCredits = "CREDITS"
	CurrencyEUR     = "EUR"
	CurrencyPTS     = "PTS"
)

// Wallet statuses
const (
	WalletStatusActive    = "active"
	WalletStatusSuspended = "suspended"
)

// Wallet is a balance-holding account owned by a user, a group, or both
// (a personal wallet attached to a group). Balance is a cache of settled
// transactions, never negative.
type Wallet struct {
	WalletID     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"wallet_id"`
	OwnerUserID  *uuid.UUID      `gorm:"type:uuid;index" json:"owner_user_id,omitempty"`
	OwnerGroupID *uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_wallets_group_currency,where:owner_user_id IS NULL" json:"owner_group_id,omitempty"`
	Currency     string          `gorm:"not null;default:'CREDITS';uniqueIndex:idx_wallets_group_currency" json:"currency"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0;check:balance >= 0" json:"balance"`
	Status       string          `gorm:"not null;default:'active'" json:"status"`
	StatusReason string          `gorm:"default:''" json:"status_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.WalletID == uuid.Nil {
		w.WalletID = uuid.New()
	}
	return nil
}

// ValidCurrency reports whether c is one of the supported currencies.
func ValidCurrency(c string) bool {
	switch c {
	case CurrencyCredits, CurrencyEUR, CurrencyPTS:
		return true
	}
	return false
}
