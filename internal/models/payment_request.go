package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment request statuses. PAID and REJECTED are terminal; a request is
// resolved exactly once by the student it was issued to.
const (
	PaymentRequestStatusPending  = "PENDING"
	PaymentRequestStatusPaid     = "PAID"
	PaymentRequestStatusRejected = "REJECTED"
)

// Payment request actions accepted from the student.
const (
	PaymentRequestActionPay    = "PAY"
	PaymentRequestActionReject = "REJECT"
)

// PaymentRequest is an invoice a group issues to a student, settled through
// a regular ledger transfer when the student pays.
type PaymentRequest struct {
	RequestID     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"request_id"`
	BDEGroupID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"bde_group_id"`
	StudentUserID uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,8);not null;check:amount > 0" json:"amount"`
	Description   string          `json:"description"`
	Status        string          `gorm:"not null;default:'PENDING'" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r *PaymentRequest) BeforeCreate(tx *gorm.DB) error {
	if r.RequestID == uuid.Nil {
		r.RequestID = uuid.New()
	}
	return nil
}
