package repositories

import (
	"context"
	"errors"
	"fmt"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExchangeRepository persists per-group-pair exchange rules and trust
// scores.
type ExchangeRepository interface {
	GetActiveRule(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.ExchangeRule, error)
	UpsertRule(ctx context.Context, rule *models.ExchangeRule) error
	GetTrustScore(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.GroupTrustScore, error)

	// RecordOutcome upserts the trust-score row for the pair in a single
	// statement with arithmetic in the SET clause, so concurrent settlements
	// between the same groups cannot lose updates. The score is recomputed
	// as clamp(0, 100, 50 + successful/total * 50).
	RecordOutcome(ctx context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal, success bool) error
}

type exchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) ExchangeRepository {
	return &exchangeRepository{db: db}
}

func (r *exchangeRepository) GetActiveRule(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.ExchangeRule, error) {
	var rule models.ExchangeRule
	err := r.db.WithContext(ctx).
		Where("from_group_id = ? AND to_group_id = ? AND active = ?", fromGroupID, toGroupID, true).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to get exchange rule: %w", err)
	}
	return &rule, nil
}

func (r *exchangeRepository) UpsertRule(ctx context.Context, rule *models.ExchangeRule) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "from_group_id"}, {Name: "to_group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"max_transaction_amount", "daily_limit", "requires_approval",
				"commission_rate", "active", "updated_at",
			}),
		}).
		Create(rule).Error
	if err != nil {
		return fmt.Errorf("failed to upsert exchange rule: %w", err)
	}
	return nil
}

func (r *exchangeRepository) GetTrustScore(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.GroupTrustScore, error) {
	var score models.GroupTrustScore
	err := r.db.WithContext(ctx).
		Where("from_group_id = ? AND to_group_id = ?", fromGroupID, toGroupID).
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTrustScoreNotFound
		}
		return nil, fmt.Errorf("failed to get trust score: %w", err)
	}
	return &score, nil
}

const recordOutcomeSQL = `
INSERT INTO group_trust_scores (
	trust_id, from_group_id, to_group_id, trust_score, total_transactions,
	total_volume, successful_transactions, failed_transactions, last_updated
) VALUES (
	?, ?, ?, LEAST(100, GREATEST(0, 50 + ? * 50)), 1, ?, ?, ?, NOW()
)
ON CONFLICT (from_group_id, to_group_id) DO UPDATE SET
	total_transactions = group_trust_scores.total_transactions + 1,
	total_volume = group_trust_scores.total_volume + EXCLUDED.total_volume,
	successful_transactions = group_trust_scores.successful_transactions + EXCLUDED.successful_transactions,
	failed_transactions = group_trust_scores.failed_transactions + EXCLUDED.failed_transactions,
	trust_score = LEAST(100, GREATEST(0,
		50 + (group_trust_scores.successful_transactions + EXCLUDED.successful_transactions)::numeric
			/ (group_trust_scores.total_transactions + 1) * 50)),
	last_updated = NOW()`

func (r *exchangeRepository) RecordOutcome(ctx context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal, success bool) error {
	successes, failures := 1, 0
	if !success {
		successes, failures = 0, 1
	}
	err := r.db.WithContext(ctx).
		Exec(recordOutcomeSQL, uuid.New(), fromGroupID, toGroupID, successes, amount, successes, failures).Error
	if err != nil {
		return fmt.Errorf("failed to record trust outcome: %w", err)
	}
	return nil
}
