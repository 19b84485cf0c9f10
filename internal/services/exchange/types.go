package exchange

import (
	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UpsertRuleRequest creates or replaces the rule for a group pair.
type UpsertRuleRequest struct {
	FromGroupID          uuid.UUID        `json:"from_group_id"`
	ToGroupID            uuid.UUID        `json:"to_group_id"`
	MaxTransactionAmount *decimal.Decimal `json:"max_transaction_amount,omitempty"`
	DailyLimit           *decimal.Decimal `json:"daily_limit,omitempty"`
	RequiresApproval     bool             `json:"requires_approval"`
	CommissionRate       decimal.Decimal  `json:"commission_rate"`
	Active               bool             `json:"active"`
}

// Verdict is the outcome of validating a prospective cross-group transfer.
// Rule is nil when no rule exists for the pair (transfers are then allowed
// without restriction).
type Verdict struct {
	Rule             *models.ExchangeRule
	RequiresApproval bool
}
