// Package wallet manages wallet lifecycle and balance views. Balances are
// never mutated here; all balance movement goes through the ledger service.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"campusledger/internal/models"
	"campusledger/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (*Balance, error)
	GetUserWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error)
	GetOrCreateGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error)
	ListGroupWallets(ctx context.Context, groupID uuid.UUID) ([]*models.Wallet, error)
	Freeze(ctx context.Context, walletID uuid.UUID, reason string) (*models.Wallet, error)
	Unfreeze(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
}

type service struct {
	store repositories.Store
	cache CacheOperator
	log   *zap.Logger
}

func NewService(store repositories.Store, cache CacheOperator, log *zap.Logger) Service {
	if store == nil {
		panic("wallet: store is required")
	}
	if cache == nil {
		cache = nopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, cache: cache, log: log}
}

func (s *service) CreateWallet(ctx context.Context, req CreateWalletRequest) (*models.Wallet, error) {
	if req.OwnerUserID == nil && req.OwnerGroupID == nil {
		return nil, ErrMissingOwner
	}
	if !models.ValidCurrency(req.Currency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, req.Currency)
	}

	w := &models.Wallet{
		OwnerUserID:  req.OwnerUserID,
		OwnerGroupID: req.OwnerGroupID,
		Currency:     req.Currency,
		Status:       models.WalletStatusActive,
	}
	if err := s.store.Wallets().Create(ctx, w); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	s.log.Info("wallet created",
		zap.String("wallet_id", w.WalletID.String()),
		zap.String("currency", w.Currency))
	return w, nil
}

func (s *service) GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	if w, ok := s.cache.GetWallet(ctx, walletID); ok {
		return w, nil
	}

	w, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	if err := s.cache.SetWallet(ctx, w); err != nil {
		s.log.Warn("wallet cache set failed", zap.Error(err))
	}
	return w, nil
}

// GetBalance returns the confirmed balance alongside the available balance,
// which excludes amounts reserved by PENDING outgoing transactions.
func (s *service) GetBalance(ctx context.Context, walletID uuid.UUID) (*Balance, error) {
	w, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	pending, err := s.store.Transactions().SumPendingOutgoing(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("sum pending outgoing: %w", err)
	}

	return &Balance{
		WalletID:  w.WalletID,
		Confirmed: w.Balance,
		Available: w.Balance.Sub(pending),
	}, nil
}

func (s *service) GetUserWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	if !models.ValidCurrency(currency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	w, err := s.store.Wallets().GetUserWallet(ctx, userID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

// GetOrCreateGroupWallet returns the group's wallet for the currency,
// creating an empty active one on first use. Concurrent first uses land on
// the same wallet; the unique index arbitrates.
func (s *service) GetOrCreateGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error) {
	if !models.ValidCurrency(currency) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	w, err := s.store.Wallets().GetOrCreateGroupWallet(ctx, groupID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *service) ListGroupWallets(ctx context.Context, groupID uuid.UUID) ([]*models.Wallet, error) {
	return s.store.Wallets().ListByGroup(ctx, groupID)
}

// Freeze suspends a wallet. Suspended wallets reject all debits and credits
// until unfrozen.
func (s *service) Freeze(ctx context.Context, walletID uuid.UUID, reason string) (*models.Wallet, error) {
	w, err := s.store.Wallets().UpdateStatus(ctx, walletID, models.WalletStatusSuspended, reason)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	if err := s.cache.InvalidateWallet(ctx, walletID); err != nil {
		s.log.Warn("wallet cache invalidate failed", zap.Error(err))
	}

	s.log.Info("wallet frozen",
		zap.String("wallet_id", walletID.String()),
		zap.String("reason", reason))
	return w, nil
}

func (s *service) Unfreeze(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	w, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	if w.Status == models.WalletStatusActive {
		return nil, ErrAlreadyActive
	}

	w, err = s.store.Wallets().UpdateStatus(ctx, walletID, models.WalletStatusActive, "")
	if err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateWallet(ctx, walletID); err != nil {
		s.log.Warn("wallet cache invalidate failed", zap.Error(err))
	}

	s.log.Info("wallet unfrozen", zap.String("wallet_id", walletID.String()))
	return w, nil
}
