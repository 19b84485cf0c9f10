package payment

import (
	"context"
	"errors"
	"testing"

	"campusledger/internal/metrics"
	"campusledger/internal/models"
	"campusledger/internal/repositories/storetest"
	"campusledger/internal/services/exchange"
	"campusledger/internal/services/ledger"

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
	lg := ledger.NewService(store, xc, metrics.Noop{}, nil, zap.NewNop())
	return store, NewService(store, lg, zap.NewNop())
}

func seedStudentWallet(t *testing.T, store *storetest.Store, balance int64) (uuid.UUID, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	w := &models.Wallet{
		OwnerUserID: &userID,
		Currency:    models.CurrencyCredits,
		Balance:     decimal.NewFromInt(balance),
		Status:      models.WalletStatusActive,
	}
	require.NoError(t, store.Wallets().Create(context.Background(), w))
	return userID, w.WalletID
}

func TestCreateRequest_Validation(t *testing.T) {
	_, svc := newTestService(t)

	_, err := svc.CreateRequest(context.Background(), CreateRequest{
		Amount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.CreateRequest(context.Background(), CreateRequest{
		BDEGroupID:    uuid.New(),
		StudentUserID: uuid.New(),
		Amount:        decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRespond_Pay(t *testing.T) {
	store, svc := newTestService(t)
	studentID, studentWallet := seedStudentWallet(t, store, 100)
	groupID := uuid.New()

	pr, err := svc.CreateRequest(context.Background(), CreateRequest{
		BDEGroupID:    groupID,
		StudentUserID: studentID,
		Amount:        decimal.NewFromInt(40),
		Description:   "ski trip deposit",
	})
	require.NoError(t, err)

	result, err := svc.Respond(context.Background(), pr.RequestID, studentID, models.PaymentRequestActionPay)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentRequestStatusPaid, result.Request.Status)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, models.TransactionStatusSuccess, result.Transaction.Status)
	assert.Equal(t, models.TransactionTypePayment, result.Transaction.Type)

	sw, err := store.Wallets().GetByID(context.Background(), studentWallet)
	require.NoError(t, err)
	assert.True(t, sw.Balance.Equal(decimal.NewFromInt(60)))

	gw, err := store.Wallets().GetGroupWallet(context.Background(), groupID, models.CurrencyCredits)
	require.NoError(t, err)
	assert.True(t, gw.Balance.Equal(decimal.NewFromInt(40)))
}

func TestRespond_PayInsufficientFundsKeepsRequestPending(t *testing.T) {
	store, svc := newTestService(t)
	studentID, _ := seedStudentWallet(t, store, 10)
	groupID := uuid.New()

	pr, err := svc.CreateRequest(context.Background(), CreateRequest{
		BDEGroupID:    groupID,
		StudentUserID: studentID,
		Amount:        decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), pr.RequestID, studentID, models.PaymentRequestActionPay)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// The request stays PENDING so the student can retry after topping up.
	got, err := svc.GetRequest(context.Background(), pr.RequestID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRequestStatusPending, got.Status)
}

func TestRespond_ConcurrentPayDebitsOnce(t *testing.T) {
	store, svc := newTestService(t)
	studentID, studentWallet := seedStudentWallet(t, store, 100)
	groupID := uuid.New()

	const trials = 20
	for i := 0; i < trials; i++ {
		pr, err := svc.CreateRequest(context.Background(), CreateRequest{
			BDEGroupID:    groupID,
			StudentUserID: studentID,
			Amount:        decimal.NewFromInt(1),
		})
		require.NoError(t, err)

		start := make(chan struct{})
		errs := make(chan error, 2)
		for g := 0; g < 2; g++ {
			go func() {
				<-start
				_, err := svc.Respond(context.Background(), pr.RequestID, studentID, models.PaymentRequestActionPay)
				errs <- err
			}()
		}
		close(start)

		var paid, already int
		for g := 0; g < 2; g++ {
			switch err := <-errs; {
			case err == nil:
				paid++
			case errors.Is(err, ErrAlreadyProcessed):
				already++
			default:
				t.Fatalf("unexpected respond error: %v", err)
			}
		}
		assert.Equal(t, 1, paid)
		assert.Equal(t, 1, already)
	}

	// One debit per request, no matter how the responses raced.
	sw, err := store.Wallets().GetByID(context.Background(), studentWallet)
	require.NoError(t, err)
	assert.True(t, sw.Balance.Equal(decimal.NewFromInt(100-trials)))

	gw, err := store.Wallets().GetGroupWallet(context.Background(), groupID, models.CurrencyCredits)
	require.NoError(t, err)
	assert.True(t, gw.Balance.Equal(decimal.NewFromInt(trials)))
}

func TestRespond_Reject(t *testing.T) {
	store, svc := newTestService(t)
	studentID, studentWallet := seedStudentWallet(t, store, 100)

	pr, err := svc.CreateRequest(context.Background(), CreateRequest{
		BDEGroupID:    uuid.New(),
		StudentUserID: studentID,
		Amount:        decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	result, err := svc.Respond(context.Background(), pr.RequestID, studentID, models.PaymentRequestActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRequestStatusRejected, result.Request.Status)
	assert.Nil(t, result.Transaction)

	sw, err := store.Wallets().GetByID(context.Background(), studentWallet)
	require.NoError(t, err)
	assert.True(t, sw.Balance.Equal(decimal.NewFromInt(100)))
}

func TestRespond_Guards(t *testing.T) {
	store, svc := newTestService(t)
	studentID, _ := seedStudentWallet(t, store, 100)

	pr, err := svc.CreateRequest(context.Background(), CreateRequest{
		BDEGroupID:    uuid.New(),
		StudentUserID: studentID,
		Amount:        decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	t.Run("unknown request", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), uuid.New(), studentID, models.PaymentRequestActionPay)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})

	t.Run("wrong student", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), pr.RequestID, uuid.New(), models.PaymentRequestActionPay)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), pr.RequestID, studentID, "MAYBE")
		assert.ErrorIs(t, err, ErrInvalidAction)
	})

	t.Run("already processed", func(t *testing.T) {
		_, err := svc.Respond(context.Background(), pr.RequestID, studentID, models.PaymentRequestActionReject)
		require.NoError(t, err)
		_, err = svc.Respond(context.Background(), pr.RequestID, studentID, models.PaymentRequestActionPay)
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	})
}

func TestListRequests(t *testing.T) {
	store, svc := newTestService(t)
	studentID, _ := seedStudentWallet(t, store, 100)
	groupID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateRequest(context.Background(), CreateRequest{
			BDEGroupID:    groupID,
			StudentUserID: studentID,
			Amount:        decimal.NewFromInt(int64(i + 1)),
		})
		require.NoError(t, err)
	}

	mine, err := svc.ListStudentRequests(context.Background(), studentID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	byGroup, err := svc.ListGroupRequests(context.Background(), groupID)
	require.NoError(t, err)
	assert.Len(t, byGroup, 3)
}
