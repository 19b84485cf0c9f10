package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types
const (
	TransactionTypeP2P      = "P2P"
	TransactionTypeMerchant = "MERCHANT"
	TransactionTypeCashIn   = "CASHIN"
	TransactionTypeCashOut  = "CASHOUT"
	TransactionTypePurchase = "PURCHASE"
	TransactionTypePayment  = "PAYMENT"
	TransactionTypeReward   = "REWARD"
)

// Transaction statuses. SUCCESS, FAILED and CANCELED are terminal; a row
// never leaves a terminal status.
const (
	TransactionStatusPending  = "PENDING"
	TransactionStatusSuccess  = "SUCCESS"
	TransactionStatusFailed   = "FAILED"
	TransactionStatusCanceled = "CANCELED"
)

// Transaction directions, relative to the acting party.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Reason codes recorded on FAILED/CANCELED transactions.
const (
	ReasonUserCanceled      = "USER_CANCELED"
	ReasonInsufficientFunds = "INSUFFICIENT_FUNDS"
	ReasonWalletInactive    = "WALLET_INACTIVE"
	ReasonWalletNotFound    = "WALLET_NOT_FOUND"
	ReasonSettlementError   = "SETTLEMENT_ERROR"
)

// Transaction is an immutable record of a single value movement. A nil
// SourceWalletID marks an external/system issuance (purchase fulfillment,
// event reward); there is no wallet to debit in that case.
type Transaction struct {
	TransactionID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"transaction_id"`
	InitiatorUserID     *uuid.UUID      `gorm:"type:uuid" json:"initiator_user_id,omitempty"`
	SourceWalletID      *uuid.UUID      `gorm:"type:uuid;index" json:"source_wallet_id,omitempty"`
	DestinationWalletID uuid.UUID       `gorm:"type:uuid;index;not null" json:"destination_wallet_id"`
	Amount              decimal.Decimal `gorm:"type:numeric(20,8);not null;check:amount > 0" json:"amount"`
	Currency            string          `gorm:"not null" json:"currency"`
	Type                string          `gorm:"column:transaction_type;not null" json:"transaction_type"`
	Direction           string          `gorm:"not null" json:"direction"`
	Status              string          `gorm:"not null;default:'PENDING';index" json:"status"`
	ReasonCode          string          `json:"reason_code,omitempty"`
	Description         string          `json:"description"`
	Metadata            JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	ExecutedAt          *time.Time      `json:"executed_at,omitempty"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TransactionID == uuid.Nil {
		t.TransactionID = uuid.New()
	}
	return nil
}

// Terminal reports whether the transaction has reached a final status.
func (t *Transaction) Terminal() bool {
	switch t.Status {
	case TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusCanceled:
		return true
	}
	return false
}
