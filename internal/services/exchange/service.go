// Package exchange validates cross-group transfers against per-pair rules
// and trust scores, and maintains the trust history that settlements feed.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/config"
	"campusledger/internal/models"
	"campusledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// ValidateTransfer checks a prospective transfer between two groups
	// against the active rule and the pair's trust score. A nil error means
	// the transfer may proceed; the verdict tells the caller whether the
	// transaction must wait for manual approval.
	ValidateTransfer(ctx context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal) (*Verdict, error)

	// RecordOutcome folds a settled or failed cross-group transfer into the
	// pair's trust score.
	RecordOutcome(ctx context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal, success bool) error

	UpsertRule(ctx context.Context, req UpsertRuleRequest) (*models.ExchangeRule, error)
	GetRule(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.ExchangeRule, error)
	GetTrustScore(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.GroupTrustScore, error)
}

type service struct {
	store         repositories.Store
	log           *zap.Logger
	minTrustScore decimal.Decimal
}

func NewService(store repositories.Store, log *zap.Logger) Service {
	if store == nil {
		panic("exchange: store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		store:         store,
		log:           log,
		minTrustScore: config.GetDecimalEnv(minTrustScoreEnv, decimal.NewFromInt(DefaultMinTrustScore)),
	}
}

func (s *service) ValidateTransfer(ctx context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal) (*Verdict, error) {
	rule, err := s.store.Exchange().GetActiveRule(ctx, fromGroupID, toGroupID)
	if err != nil {
		if errors.Is(err, repositories.ErrRuleNotFound) {
			// No rule configured for the pair: transfers pass unrestricted.
			return &Verdict{}, nil
		}
		return nil, err
	}

	if rule.MaxTransactionAmount != nil && amount.GreaterThan(*rule.MaxTransactionAmount) {
		return nil, fmt.Errorf("%w: max %s", ErrAmountOverRuleMax, rule.MaxTransactionAmount.String())
	}

	if rule.DailyLimit != nil {
		since := time.Now().Add(-dailyLimitWindow)
		volume, err := s.store.Transactions().SumInterGroupVolume(ctx, fromGroupID, toGroupID, since)
		if err != nil {
			return nil, fmt.Errorf("sum daily volume: %w", err)
		}
		if volume.Add(amount).GreaterThan(*rule.DailyLimit) {
			return nil, fmt.Errorf("%w: limit %s, used %s", ErrDailyLimitReached,
				rule.DailyLimit.String(), volume.String())
		}
	}

	// The trust gate applies only once the pair has recorded outcomes; a
	// first exchange between two groups is never blocked by it.
	ts, err := s.store.Exchange().GetTrustScore(ctx, fromGroupID, toGroupID)
	if err != nil {
		if errors.Is(err, repositories.ErrTrustScoreNotFound) {
			return &Verdict{Rule: rule, RequiresApproval: rule.RequiresApproval}, nil
		}
		return nil, err
	}
	if ts.TrustScore.LessThan(s.minTrustScore) {
		return nil, fmt.Errorf("%w: score %s, minimum %s", ErrInsufficientTrust,
			ts.TrustScore.String(), s.minTrustScore.String())
	}

	return &Verdict{Rule: rule, RequiresApproval: rule.RequiresApproval}, nil
}

func (s *service) RecordOutcome(ctx context.Context, fromGroupID, toGroupID uuid.UUID, amount decimal.Decimal, success bool) error {
	if err := s.store.Exchange().RecordOutcome(ctx, fromGroupID, toGroupID, amount, success); err != nil {
		return err
	}
	s.log.Debug("trust outcome recorded",
		zap.String("from_group", fromGroupID.String()),
		zap.String("to_group", toGroupID.String()),
		zap.Bool("success", success))
	return nil
}

func (s *service) UpsertRule(ctx context.Context, req UpsertRuleRequest) (*models.ExchangeRule, error) {
	if req.FromGroupID == uuid.Nil || req.ToGroupID == uuid.Nil {
		return nil, fmt.Errorf("%w: both group ids are required", ErrInvalidRule)
	}
	if req.FromGroupID == req.ToGroupID {
		return nil, fmt.Errorf("%w: groups must differ", ErrInvalidRule)
	}
	if req.MaxTransactionAmount != nil && req.MaxTransactionAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: max transaction amount must be positive", ErrInvalidRule)
	}
	if req.DailyLimit != nil && req.DailyLimit.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: daily limit must be positive", ErrInvalidRule)
	}
	if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: commission rate must be within [0, 1]", ErrInvalidRule)
	}

	rule := &models.ExchangeRule{
		FromGroupID:          req.FromGroupID,
		ToGroupID:            req.ToGroupID,
		MaxTransactionAmount: req.MaxTransactionAmount,
		DailyLimit:           req.DailyLimit,
		RequiresApproval:     req.RequiresApproval,
		CommissionRate:       req.CommissionRate,
		Active:               req.Active,
	}
	if err := s.store.Exchange().UpsertRule(ctx, rule); err != nil {
		return nil, err
	}

	s.log.Info("exchange rule upserted",
		zap.String("from_group", rule.FromGroupID.String()),
		zap.String("to_group", rule.ToGroupID.String()),
		zap.Bool("active", rule.Active))
	return rule, nil
}

func (s *service) GetRule(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.ExchangeRule, error) {
	return s.store.Exchange().GetActiveRule(ctx, fromGroupID, toGroupID)
}

func (s *service) GetTrustScore(ctx context.Context, fromGroupID, toGroupID uuid.UUID) (*models.GroupTrustScore, error) {
	return s.store.Exchange().GetTrustScore(ctx, fromGroupID, toGroupID)
}
