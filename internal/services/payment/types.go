package payment

import (
	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRequest issues an invoice from a group to a student.
type CreateRequest struct {
	BDEGroupID    uuid.UUID       `json:"bde_group_id"`
	StudentUserID uuid.UUID       `json:"student_user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// RespondResult carries the resolved request and, for PAY, the ledger
// transaction that settled it.
type RespondResult struct {
	Request     *models.PaymentRequest `json:"request"`
	Transaction *models.Transaction    `json:"transaction,omitempty"`
}
