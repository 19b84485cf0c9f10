package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExchangeRule limits transfers between an ordered pair of groups. Nil
// limits mean "no limit of that kind". An inactive rule is ignored.
type ExchangeRule struct {
	RuleID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"rule_id"`
	FromGroupID          uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_exchange_rules_pair" json:"from_group_id"`
	ToGroupID            uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_exchange_rules_pair" json:"to_group_id"`
	MaxTransactionAmount *decimal.Decimal `gorm:"type:numeric(20,8)" json:"max_transaction_amount,omitempty"`
	DailyLimit           *decimal.Decimal `gorm:"type:numeric(20,8)" json:"daily_limit,omitempty"`
	RequiresApproval     bool             `gorm:"not null;default:false" json:"requires_approval"`
	CommissionRate       decimal.Decimal  `gorm:"type:numeric(5,4);not null;default:0" json:"commission_rate"`
	Active               bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (r *ExchangeRule) BeforeCreate(tx *gorm.DB) error {
	if r.RuleID == uuid.Nil {
		r.RuleID = uuid.New()
	}
	return nil
}

// GroupTrustScore is a 0-100 reputation metric for an ordered pair of
// groups, derived from the historical transaction success ratio between
// them. New pairs start at 50.
type GroupTrustScore struct {
	TrustID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"trust_id"`
	FromGroupID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_group_trust_scores_pair" json:"from_group_id"`
	ToGroupID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_group_trust_scores_pair" json:"to_group_id"`
	TrustScore             decimal.Decimal `gorm:"type:numeric(5,2);not null;default:50" json:"trust_score"`
	TotalTransactions      int64           `gorm:"not null;default:0" json:"total_transactions"`
	TotalVolume            decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"total_volume"`
	SuccessfulTransactions int64           `gorm:"not null;default:0" json:"successful_transactions"`
	FailedTransactions     int64           `gorm:"not null;default:0" json:"failed_transactions"`
	LastUpdated            time.Time       `json:"last_updated"`
}
