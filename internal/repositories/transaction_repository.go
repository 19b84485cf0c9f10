package repositories

import (
	"context"
	"time"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryOptions narrows a transaction history query.
type HistoryOptions struct {
	Limit  int
	Offset int
	Status string
}

// TransactionRepository defines ledger row persistence. Rows are inserted
// once and only ever move from PENDING to a terminal status.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	GetByID(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)

	// MarkSettled flips a PENDING transaction to a terminal status. It
	// returns false when the transaction was no longer PENDING, which makes
	// settlement and cancellation idempotent under retries.
	MarkSettled(ctx context.Context, transactionID uuid.UUID, status, reasonCode string, executedAt time.Time) (bool, error)

	ListByWallet(ctx context.Context, walletID uuid.UUID, opts HistoryOptions) ([]*models.Transaction, error)

	// SumPendingOutgoing totals PENDING debits against a wallet, used to
	// compute the available (vs confirmed) balance.
	SumPendingOutgoing(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)

	// SumInterGroupVolume totals settled transfer volume from one group's
	// wallets to another's since the given time, for daily-limit checks.
	SumInterGroupVolume(ctx context.Context, fromGroupID, toGroupID uuid.UUID, since time.Time) (decimal.Decimal, error)
}
