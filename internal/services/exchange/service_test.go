package exchange

import (
	"context"
	"testing"
	"time"

	"campusledger/internal/models"
	"campusledger/internal/repositories/storetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateTransfer_NoRuleIsOpen(t *testing.T) {
	store := storetest.New()
	svc := NewService(store, zap.NewNop())

	verdict, err := svc.ValidateTransfer(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Nil(t, verdict.Rule)
	assert.False(t, verdict.RequiresApproval)
}

func TestValidateTransfer_MaxAmount(t *testing.T) {
	store := storetest.New()
	svc := NewService(store, zap.NewNop())
	from, to := uuid.New(), uuid.New()

	limit := decimal.NewFromInt(100)
	require.NoError(t, store.Exchange().UpsertRule(context.Background(), &models.ExchangeRule{
		FromGroupID:          from,
		ToGroupID:            to,
		MaxTransactionAmount: &limit,
		Active:               true,
	}))

	_, err := svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(101))
	assert.ErrorIs(t, err, ErrAmountOverRuleMax)

	verdict, err := svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.NotNil(t, verdict.Rule)
}

func TestValidateTransfer_DailyLimit(t *testing.T) {
	store := storetest.New()
	svc := NewService(store, zap.NewNop())
	from, to := uuid.New(), uuid.New()

	srcWallet := &models.Wallet{OwnerGroupID: &from, Currency: models.CurrencyCredits, Status: models.WalletStatusActive}
	dstWallet := &models.Wallet{OwnerGroupID: &to, Currency: models.CurrencyCredits, Status: models.WalletStatusActive}
	require.NoError(t, store.Wallets().Create(context.Background(), srcWallet))
	require.NoError(t, store.Wallets().Create(context.Background(), dstWallet))

	// 150 of the 200 daily limit already settled within the window.
	settled := &models.Transaction{
		SourceWalletID:      &srcWallet.WalletID,
		DestinationWalletID: dstWallet.WalletID,
		Amount:              decimal.NewFromInt(150),
		Currency:            models.CurrencyCredits,
		Type:                models.TransactionTypeP2P,
		Direction:           models.DirectionOutgoing,
		Status:              models.TransactionStatusSuccess,
		CreatedAt:           time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.Transactions().Create(context.Background(), settled))

	dailyLimit := decimal.NewFromInt(200)
	require.NoError(t, store.Exchange().UpsertRule(context.Background(), &models.ExchangeRule{
		FromGroupID: from,
		ToGroupID:   to,
		DailyLimit:  &dailyLimit,
		Active:      true,
	}))

	_, err := svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(60))
	assert.ErrorIs(t, err, ErrDailyLimitReached)

	_, err = svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(50))
	assert.NoError(t, err)
}

func TestValidateTransfer_TrustGate(t *testing.T) {
	t.Setenv(minTrustScoreEnv, "60")

	store := storetest.New()
	svc := NewService(store, zap.NewNop())
	from, to := uuid.New(), uuid.New()

	require.NoError(t, store.Exchange().UpsertRule(context.Background(), &models.ExchangeRule{
		FromGroupID: from,
		ToGroupID:   to,
		Active:      true,
	}))

	// No recorded history: the gate does not apply to a first exchange.
	_, err := svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(10))
	assert.NoError(t, err)

	// A failed first outcome scores the pair at 50, below the minimum.
	require.NoError(t, svc.RecordOutcome(context.Background(), from, to, decimal.NewFromInt(10), false))
	_, err = svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrInsufficientTrust)

	// A success lifts the pair to 75, back over the minimum.
	require.NoError(t, svc.RecordOutcome(context.Background(), from, to, decimal.NewFromInt(10), true))
	_, err = svc.ValidateTransfer(context.Background(), from, to, decimal.NewFromInt(10))
	assert.NoError(t, err)
}

func TestRecordOutcome_ScoreMath(t *testing.T) {
	store := storetest.New()
	svc := NewService(store, zap.NewNop())
	from, to := uuid.New(), uuid.New()

	require.NoError(t, svc.RecordOutcome(context.Background(), from, to, decimal.NewFromInt(10), true))
	ts, err := svc.GetTrustScore(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, ts.TrustScore.Equal(decimal.NewFromInt(100)))

	require.NoError(t, svc.RecordOutcome(context.Background(), from, to, decimal.NewFromInt(10), false))
	ts, err = svc.GetTrustScore(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, ts.TrustScore.Equal(decimal.NewFromInt(75)))
	assert.EqualValues(t, 2, ts.TotalTransactions)
	assert.EqualValues(t, 1, ts.FailedTransactions)
	assert.True(t, ts.TotalVolume.Equal(decimal.NewFromInt(20)))
}

func TestUpsertRule_Validation(t *testing.T) {
	store := storetest.New()
	svc := NewService(store, zap.NewNop())
	group := uuid.New()

	tests := []struct {
		name string
		req  UpsertRuleRequest
	}{
		{"missing groups", UpsertRuleRequest{}},
		{"same group", UpsertRuleRequest{FromGroupID: group, ToGroupID: group}},
		{"negative max", UpsertRuleRequest{
			FromGroupID:          group,
			ToGroupID:            uuid.New(),
			MaxTransactionAmount: decimalPtr(decimal.NewFromInt(-1)),
		}},
		{"commission above one", UpsertRuleRequest{
			FromGroupID:    group,
			ToGroupID:      uuid.New(),
			CommissionRate: decimal.NewFromInt(2),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpsertRule(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestUpsertRule_ReplacesExisting(t *testing.T) {
	store := storetest.New()
	svc := NewService(store, zap.NewNop())
	from, to := uuid.New(), uuid.New()

	_, err := svc.UpsertRule(context.Background(), UpsertRuleRequest{
		FromGroupID: from,
		ToGroupID:   to,
		Active:      true,
	})
	require.NoError(t, err)

	_, err = svc.UpsertRule(context.Background(), UpsertRuleRequest{
		FromGroupID:      from,
		ToGroupID:        to,
		RequiresApproval: true,
		Active:           true,
	})
	require.NoError(t, err)

	rule, err := svc.GetRule(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, rule.RequiresApproval)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
