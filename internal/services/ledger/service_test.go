package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"campusledger/internal/metrics"
	"campusledger/internal/models"
	"campusledger/internal/repositories"
	"campusledger/internal/repositories/storetest"
	"campusledger/internal/services/exchange"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*storetest.Store, Service) {
	t.Helper()
	store := storetest.New()
	xc := exchange.NewService(store, zap.NewNop())
	return store, NewService(store, xc, metrics.Noop{}, nil, zap.NewNop())
}

func seedWallet(t *testing.T, store *storetest.Store, balance int64, groupID *uuid.UUID) *models.Wallet {
	t.Helper()
	userID := uuid.New()
	w := &models.Wallet{
		OwnerUserID:  &userID,
		OwnerGroupID: groupID,
		Currency:     models.CurrencyCredits,
		Balance:      decimal.NewFromInt(balance),
		Status:       models.WalletStatusActive,
	}
	require.NoError(t, store.Wallets().Create(context.Background(), w))
	return w
}

func walletBalance(t *testing.T, store *storetest.Store, walletID uuid.UUID) decimal.Decimal {
	t.Helper()
	w, err := store.Wallets().GetByID(context.Background(), walletID)
	require.NoError(t, err)
	return w.Balance
}

func TestTransfer_Success(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 10, nil)

	txn, err := svc.Transfer(context.Background(), TransferRequest{
		InitiatorUserID:     *source.OwnerUserID,
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(30),
		Description:         "lunch split",
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, models.TransactionTypeP2P, txn.Type)
	assert.NotNil(t, txn.ExecutedAt)
	assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(70)))
	assert.True(t, walletBalance(t, store, dest.WalletID).Equal(decimal.NewFromInt(40)))
}

// invalidationRecorder captures the wallet IDs whose cached reads were
// evicted.
type invalidationRecorder struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *invalidationRecorder) InvalidateWallet(_ context.Context, walletID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, walletID)
	return nil
}

func TestTransfer_InvalidatesCachedWallets(t *testing.T) {
	store := storetest.New()
	rec := &invalidationRecorder{}
	xc := exchange.NewService(store, zap.NewNop())
	svc := NewService(store, xc, metrics.Noop{}, rec, zap.NewNop())

	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 0, nil)

	_, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Contains(t, rec.ids, source.WalletID)
	assert.Contains(t, rec.ids, dest.WalletID)
}

func TestExternalCredit_InvalidatesCachedWallet(t *testing.T) {
	store := storetest.New()
	rec := &invalidationRecorder{}
	xc := exchange.NewService(store, zap.NewNop())
	svc := NewService(store, xc, metrics.Noop{}, rec, zap.NewNop())

	dest := seedWallet(t, store, 0, nil)
	_, err := svc.ExternalCredit(context.Background(), CreditRequest{
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	assert.Contains(t, rec.ids, dest.WalletID)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 10, nil)
	dest := seedWallet(t, store, 0, nil)

	_, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// Nothing moved and no transaction row was written: the available
	// balance check rejects before the PENDING insert.
	assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(10)))
	assert.True(t, walletBalance(t, store, dest.WalletID).Equal(decimal.Zero))
	history, err := svc.GetHistory(context.Background(), source.WalletID, repositories.HistoryOptions{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransfer_ValidationErrors(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 0, nil)

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      source.WalletID,
			DestinationWalletID: dest.WalletID,
			Amount:              decimal.Zero,
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("same wallet", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      source.WalletID,
			DestinationWalletID: source.WalletID,
			Amount:              decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrSameWallet)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      uuid.New(),
			DestinationWalletID: dest.WalletID,
			Amount:              decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrWalletNotFound)
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur := &models.Wallet{
			Currency: models.CurrencyEUR,
			Status:   models.WalletStatusActive,
		}
		groupID := uuid.New()
		eur.OwnerGroupID = &groupID
		require.NoError(t, store.Wallets().Create(context.Background(), eur))

		_, err := svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      source.WalletID,
			DestinationWalletID: eur.WalletID,
			Amount:              decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})

	t.Run("suspended source", func(t *testing.T) {
		frozen := seedWallet(t, store, 100, nil)
		_, err := store.Wallets().UpdateStatus(context.Background(), frozen.WalletID, models.WalletStatusSuspended, "fraud review")
		require.NoError(t, err)

		_, err = svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      frozen.WalletID,
			DestinationWalletID: dest.WalletID,
			Amount:              decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrWalletInactive)
	})
}

func TestTransfer_PendingReservesAvailableBalance(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 0, nil)

	// A PENDING outgoing row reserves 80 of the 100.
	pending := &models.Transaction{
		SourceWalletID:      &source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(80),
		Currency:            models.CurrencyCredits,
		Type:                models.TransactionTypeP2P,
		Direction:           models.DirectionOutgoing,
		Status:              models.TransactionStatusPending,
	}
	require.NoError(t, store.Transactions().Create(context.Background(), pending))

	_, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(30),
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSettle_AtomicRollbackOnCreditFailure(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 0, nil)

	store.FailAdjustBalance(dest.WalletID, errors.New("storage failure"))

	txn, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(40),
	})
	require.Error(t, err)

	// The debit rolled back with the failed credit, and the row records the
	// terminal failure.
	assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(100)))
	assert.True(t, walletBalance(t, store, dest.WalletID).Equal(decimal.Zero))
	require.NotNil(t, txn)
	assert.Equal(t, models.TransactionStatusFailed, txn.Status)
	assert.Equal(t, models.ReasonSettlementError, txn.ReasonCode)
}

func TestSettle_Idempotent(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 0, nil)

	txn, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusSuccess, txn.Status)

	again, err := svc.Settle(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, again.Status)

	// Balances reflect exactly one settlement.
	assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(75)))
	assert.True(t, walletBalance(t, store, dest.WalletID).Equal(decimal.NewFromInt(25)))
}

func TestCancel(t *testing.T) {
	store, svc := newTestService(t)
	source := seedWallet(t, store, 100, nil)
	dest := seedWallet(t, store, 0, nil)
	initiator := *source.OwnerUserID

	pending := &models.Transaction{
		InitiatorUserID:     &initiator,
		SourceWalletID:      &source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(10),
		Currency:            models.CurrencyCredits,
		Type:                models.TransactionTypeP2P,
		Direction:           models.DirectionOutgoing,
		Status:              models.TransactionStatusPending,
	}
	require.NoError(t, store.Transactions().Create(context.Background(), pending))

	t.Run("wrong initiator", func(t *testing.T) {
		other := uuid.New()
		_, err := svc.Cancel(context.Background(), pending.TransactionID, &other)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("initiator cancels", func(t *testing.T) {
		txn, err := svc.Cancel(context.Background(), pending.TransactionID, &initiator)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusCanceled, txn.Status)
		assert.Equal(t, models.ReasonUserCanceled, txn.ReasonCode)
		assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(100)))
	})

	t.Run("terminal transaction cannot be canceled", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), pending.TransactionID, &initiator)
		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestExternalCredit(t *testing.T) {
	store, svc := newTestService(t)
	dest := seedWallet(t, store, 5, nil)

	txn, err := svc.ExternalCredit(context.Background(), CreditRequest{
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(100),
		Description:         "credit pack",
	})
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
	assert.Nil(t, txn.SourceWalletID)
	assert.Equal(t, models.TransactionTypeCashIn, txn.Type)
	assert.True(t, walletBalance(t, store, dest.WalletID).Equal(decimal.NewFromInt(105)))
}

func TestGetHistory_SignConvention(t *testing.T) {
	store, svc := newTestService(t)
	a := seedWallet(t, store, 100, nil)
	b := seedWallet(t, store, 100, nil)

	_, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      a.WalletID,
		DestinationWalletID: b.WalletID,
		Amount:              decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      b.WalletID,
		DestinationWalletID: a.WalletID,
		Amount:              decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	history, err := svc.GetHistory(context.Background(), a.WalletID, repositories.HistoryOptions{})
	require.NoError(t, err)
	require.Len(t, history, 2)

	var outgoing, incoming decimal.Decimal
	for _, entry := range history {
		if entry.SourceWalletID != nil && *entry.SourceWalletID == a.WalletID {
			outgoing = entry.SignedAmount
		} else {
			incoming = entry.SignedAmount
		}
	}
	assert.True(t, outgoing.Equal(decimal.NewFromInt(-20)))
	assert.True(t, incoming.Equal(decimal.NewFromInt(5)))
}

func TestTransfer_CrossGroupRule(t *testing.T) {
	store, svc := newTestService(t)
	groupA, groupB := uuid.New(), uuid.New()
	source := seedWallet(t, store, 500, &groupA)
	dest := seedWallet(t, store, 0, &groupB)

	limit := decimal.NewFromInt(50)
	require.NoError(t, store.Exchange().UpsertRule(context.Background(), &models.ExchangeRule{
		FromGroupID:          groupA,
		ToGroupID:            groupB,
		MaxTransactionAmount: &limit,
		Active:               true,
	}))

	t.Run("over the per-transaction limit", func(t *testing.T) {
		_, err := svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      source.WalletID,
			DestinationWalletID: dest.WalletID,
			Amount:              decimal.NewFromInt(100),
		})
		assert.ErrorIs(t, err, exchange.ErrAmountOverRuleMax)
	})

	t.Run("within the limit settles and records trust", func(t *testing.T) {
		txn, err := svc.Transfer(context.Background(), TransferRequest{
			SourceWalletID:      source.WalletID,
			DestinationWalletID: dest.WalletID,
			Amount:              decimal.NewFromInt(40),
		})
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusSuccess, txn.Status)

		ts, err := store.Exchange().GetTrustScore(context.Background(), groupA, groupB)
		require.NoError(t, err)
		assert.EqualValues(t, 1, ts.SuccessfulTransactions)
		assert.True(t, ts.TrustScore.Equal(decimal.NewFromInt(100)))
	})
}

func TestTransfer_RequiresApprovalStaysPending(t *testing.T) {
	store, svc := newTestService(t)
	groupA, groupB := uuid.New(), uuid.New()
	source := seedWallet(t, store, 200, &groupA)
	dest := seedWallet(t, store, 0, &groupB)

	require.NoError(t, store.Exchange().UpsertRule(context.Background(), &models.ExchangeRule{
		FromGroupID:      groupA,
		ToGroupID:        groupB,
		RequiresApproval: true,
		Active:           true,
	}))

	txn, err := svc.Transfer(context.Background(), TransferRequest{
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(60),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(200)))

	settled, err := svc.Settle(context.Background(), txn.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, settled.Status)
	assert.True(t, walletBalance(t, store, source.WalletID).Equal(decimal.NewFromInt(140)))
	assert.True(t, walletBalance(t, store, dest.WalletID).Equal(decimal.NewFromInt(60)))
}

func TestTransferCredits_CreatesGroupWalletOnFirstUse(t *testing.T) {
	store, svc := newTestService(t)
	student := seedWallet(t, store, 100, nil)
	groupID := uuid.New()

	txn, err := svc.TransferCredits(context.Background(), *student.OwnerUserID, groupID,
		decimal.NewFromInt(30), models.TransactionTypePayment, "membership fee")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)

	gw, err := store.Wallets().GetGroupWallet(context.Background(), groupID, models.CurrencyCredits)
	require.NoError(t, err)
	assert.True(t, gw.Balance.Equal(decimal.NewFromInt(30)))
}
