package wallet

import (
	"context"
	"testing"

	"campusledger/internal/models"
	"campusledger/internal/repositories"
	"campusledger/internal/repositories/storetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*storetest.Store, Service) {
	t.Helper()
	store := storetest.New()
	return store, NewService(store, nil, zap.NewNop())
}

func TestCreateWallet(t *testing.T) {
	_, svc := newTestService(t)

	t.Run("requires an owner", func(t *testing.T) {
		_, err := svc.CreateWallet(context.Background(), CreateWalletRequest{
			Currency: models.CurrencyCredits,
		})
		assert.ErrorIs(t, err, ErrMissingOwner)
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		userID := uuid.New()
		_, err := svc.CreateWallet(context.Background(), CreateWalletRequest{
			OwnerUserID: &userID,
			Currency:    "DOGE",
		})
		assert.ErrorIs(t, err, ErrInvalidCurrency)
	})

	t.Run("creates an active empty wallet", func(t *testing.T) {
		userID := uuid.New()
		w, err := svc.CreateWallet(context.Background(), CreateWalletRequest{
			OwnerUserID: &userID,
			Currency:    models.CurrencyCredits,
		})
		require.NoError(t, err)
		assert.Equal(t, models.WalletStatusActive, w.Status)
		assert.True(t, w.Balance.IsZero())
		assert.NotEqual(t, uuid.Nil, w.WalletID)
	})
}

func TestGetBalance_AvailableExcludesPending(t *testing.T) {
	store, svc := newTestService(t)
	userID := uuid.New()
	w, err := svc.CreateWallet(context.Background(), CreateWalletRequest{
		OwnerUserID: &userID,
		Currency:    models.CurrencyCredits,
	})
	require.NoError(t, err)

	_, err = store.Wallets().AdjustBalance(context.Background(), w.WalletID, decimal.NewFromInt(100))
	require.NoError(t, err)

	other := uuid.New()
	dest, err := svc.CreateWallet(context.Background(), CreateWalletRequest{
		OwnerUserID: &other,
		Currency:    models.CurrencyCredits,
	})
	require.NoError(t, err)

	pending := &models.Transaction{
		SourceWalletID:      &w.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              decimal.NewFromInt(30),
		Currency:            models.CurrencyCredits,
		Type:                models.TransactionTypeP2P,
		Direction:           models.DirectionOutgoing,
		Status:              models.TransactionStatusPending,
	}
	require.NoError(t, store.Transactions().Create(context.Background(), pending))

	balance, err := svc.GetBalance(context.Background(), w.WalletID)
	require.NoError(t, err)
	assert.True(t, balance.Confirmed.Equal(decimal.NewFromInt(100)))
	assert.True(t, balance.Available.Equal(decimal.NewFromInt(70)))
}

func TestGetBalance_NotFound(t *testing.T) {
	_, svc := newTestService(t)
	_, err := svc.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestGetOrCreateGroupWallet(t *testing.T) {
	store, svc := newTestService(t)
	groupID := uuid.New()

	first, err := svc.GetOrCreateGroupWallet(context.Background(), groupID, models.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, models.WalletStatusActive, first.Status)

	second, err := svc.GetOrCreateGroupWallet(context.Background(), groupID, models.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, first.WalletID, second.WalletID)

	t.Run("concurrent first use yields one wallet", func(t *testing.T) {
		fresh := uuid.New()
		start := make(chan struct{})
		ids := make(chan uuid.UUID, 4)
		for g := 0; g < 4; g++ {
			go func() {
				<-start
				w, err := svc.GetOrCreateGroupWallet(context.Background(), fresh, models.CurrencyCredits)
				assert.NoError(t, err)
				ids <- w.WalletID
			}()
		}
		close(start)

		winner := <-ids
		for g := 0; g < 3; g++ {
			assert.Equal(t, winner, <-ids)
		}

		wallets, err := store.Wallets().ListByGroup(context.Background(), fresh)
		require.NoError(t, err)
		assert.Len(t, wallets, 1)
	})
}

func TestCreateGroupWallet_Duplicate(t *testing.T) {
	store, svc := newTestService(t)
	groupID := uuid.New()

	_, err := svc.GetOrCreateGroupWallet(context.Background(), groupID, models.CurrencyEUR)
	require.NoError(t, err)

	err = store.Wallets().Create(context.Background(), &models.Wallet{
		OwnerGroupID: &groupID,
		Currency:     models.CurrencyEUR,
		Status:       models.WalletStatusActive,
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicateWallet)
}

func TestFreezeUnfreeze(t *testing.T) {
	store, svc := newTestService(t)
	userID := uuid.New()
	w, err := svc.CreateWallet(context.Background(), CreateWalletRequest{
		OwnerUserID: &userID,
		Currency:    models.CurrencyCredits,
	})
	require.NoError(t, err)

	frozen, err := svc.Freeze(context.Background(), w.WalletID, "fraud review")
	require.NoError(t, err)
	assert.Equal(t, models.WalletStatusSuspended, frozen.Status)
	assert.Equal(t, "fraud review", frozen.StatusReason)

	// Suspended wallets reject balance movement.
	_, err = store.Wallets().AdjustBalance(context.Background(), w.WalletID, decimal.NewFromInt(10))
	assert.Error(t, err)

	active, err := svc.Unfreeze(context.Background(), w.WalletID)
	require.NoError(t, err)
	assert.Equal(t, models.WalletStatusActive, active.Status)

	_, err = svc.Unfreeze(context.Background(), w.WalletID)
	assert.ErrorIs(t, err, ErrAlreadyActive)
}
