package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateWallet
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByID(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, "wallet_id = ?", walletID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetUserWallet(ctx context.Context, userID uuid.UUID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ? AND currency = ? AND status = ?", userID, currency, models.WalletStatusActive).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get user wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("owner_group_id = ? AND owner_user_id IS NULL AND currency = ? AND status = ?",
			groupID, currency, models.WalletStatusActive).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get group wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetOrCreateGroupWallet(ctx context.Context, groupID uuid.UUID, currency string) (*models.Wallet, error) {
	w, err := r.GetGroupWallet(ctx, groupID, currency)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	w = &models.Wallet{
		OwnerGroupID: &groupID,
		Currency:     currency,
		Status:       models.WalletStatusActive,
	}
	err = r.Create(ctx, w)
	if errors.Is(err, ErrDuplicateWallet) {
		// Lost the first-use race; the winner's row is the group wallet.
		return r.GetGroupWallet(ctx, groupID, currency)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *walletRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	err := r.db.WithContext(ctx).
		Where("owner_group_id = ?", groupID).
		Order("created_at DESC").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list group wallets: %w", err)
	}
	return wallets, nil
}

func (r *walletRepository) AdjustBalance(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) (*models.Wallet, error) {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("wallet_id = ? AND status = ? AND balance + ? >= 0", walletID, models.WalletStatusActive, delta).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to adjust balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// The guard rejected the update; classify why.
		wallet, err := r.GetByID(ctx, walletID)
		if err != nil {
			return nil, err
		}
		if wallet.Status != models.WalletStatusActive {
			return nil, ErrWalletInactive
		}
		return nil, ErrInsufficientFunds
	}
	return r.GetByID(ctx, walletID)
}

func (r *walletRepository) UpdateStatus(ctx context.Context, walletID uuid.UUID, status, reason string) (*models.Wallet, error) {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("wallet_id = ?", walletID).
		Updates(map[string]interface{}{
			"status":        status,
			"status_reason": reason,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update wallet status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrWalletNotFound
	}
	return r.GetByID(ctx, walletID)
}
