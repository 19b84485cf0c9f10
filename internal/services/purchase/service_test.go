package purchase

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

func seedStudentWallet(t *testing.T, store *storetest.Store) (uuid.UUID, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	w := &models.Wallet{
		OwnerUserID: &userID,
		Currency:    models.CurrencyCredits,
		Status:      models.WalletStatusActive,
	}
	require.NoError(t, store.Wallets().Create(context.Background(), w))
	return userID, w.WalletID
}

func TestFulfillOrder(t *testing.T) {
	store, svc := newTestService(t)
	studentID, studentWallet := seedStudentWallet(t, store)
	groupID := uuid.New()

	result, err := svc.FulfillOrder(context.Background(), studentID, groupID, "product_20_eur", "order-123")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeCashIn, result.CreditTxn.Type)
	assert.Equal(t, models.TransactionTypePurchase, result.RevenueTxn.Type)

	sw, err := store.Wallets().GetByID(context.Background(), studentWallet)
	require.NoError(t, err)
	assert.True(t, sw.Balance.Equal(decimal.NewFromInt(250)))

	gw, err := store.Wallets().GetGroupWallet(context.Background(), groupID, models.CurrencyEUR)
	require.NoError(t, err)
	assert.True(t, gw.Balance.Equal(decimal.NewFromInt(20)))
}

func TestFulfillOrder_UnknownProduct(t *testing.T) {
	store, svc := newTestService(t)
	studentID, _ := seedStudentWallet(t, store)

	_, err := svc.FulfillOrder(context.Background(), studentID, uuid.New(), "product_999_eur", "order-1")
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestFulfillOrder_Validation(t *testing.T) {
	_, svc := newTestService(t)

	_, err := svc.FulfillOrder(context.Background(), uuid.Nil, uuid.New(), "product_10_eur", "order-1")
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = svc.FulfillOrder(context.Background(), uuid.New(), uuid.New(), "product_10_eur", "")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestFulfillOrder_AtomicAcrossBothCredits(t *testing.T) {
	store, svc := newTestService(t)
	studentID, studentWallet := seedStudentWallet(t, store)
	groupID := uuid.New()

	// Pre-create the group revenue wallet so its credit can be failed.
	gw := &models.Wallet{
		OwnerGroupID: &groupID,
		Currency:     models.CurrencyEUR,
		Status:       models.WalletStatusActive,
	}
	require.NoError(t, store.Wallets().Create(context.Background(), gw))
	store.FailAdjustBalance(gw.WalletID, errors.New("storage failure"))

	_, err := svc.FulfillOrder(context.Background(), studentID, groupID, "product_10_eur", "order-7")
	require.Error(t, err)

	// The student credit rolled back with the failed revenue credit.
	sw, err := store.Wallets().GetByID(context.Background(), studentWallet)
	require.NoError(t, err)
	assert.True(t, sw.Balance.IsZero())
}

func TestListPacks(t *testing.T) {
	_, svc := newTestService(t)
	packs := svc.ListPacks()
	assert.Len(t, packs, 3)
}
