package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).First(&txn, "transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *transactionRepository) MarkSettled(ctx context.Context, transactionID uuid.UUID, status, reasonCode string, executedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_id = ? AND status = ?", transactionID, models.TransactionStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reason_code": reasonCode,
			"executed_at": executedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to settle transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, opts HistoryOptions) ([]*models.Transaction, error) {
	q := r.db.WithContext(ctx).
		Where("source_wallet_id = ? OR destination_wallet_id = ?", walletID, walletID)
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var txns []*models.Transaction
	err := q.Order("created_at DESC").Offset(opts.Offset).Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *transactionRepository) SumPendingOutgoing(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("source_wallet_id = ? AND status = ?", walletID, models.TransactionStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending outgoing: %w", err)
	}
	return total, nil
}

func (r *transactionRepository) SumInterGroupVolume(ctx context.Context, fromGroupID, toGroupID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("source_wallet_id IN (?)",
			r.db.Model(&models.Wallet{}).Select("wallet_id").Where("owner_group_id = ?", fromGroupID)).
		Where("destination_wallet_id IN (?)",
			r.db.Model(&models.Wallet{}).Select("wallet_id").Where("owner_group_id = ?", toGroupID)).
		Where("status = ? AND created_at >= ?", models.TransactionStatusSuccess, since).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum inter-group volume: %w", err)
	}
	return total, nil
}
