package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/models"
	"campusledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// errConcurrentSettle signals that another settlement flipped the row while
// this one held it. The enclosing storage transaction rolls back and the
// retry loop re-reads the terminal row.
var errConcurrentSettle = errors.New("transaction settled concurrently")

// settle executes a PENDING transaction: debit the source (when present),
// credit the destination and flip the row to SUCCESS, all inside one storage
// transaction. Any failure rolls the balance writes back; domain failures
// are then recorded on the row as FAILED with a reason code.
func (s *service) settle(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	var (
		settled    *models.Transaction
		settledNow bool
	)

	err := s.withRetry(ctx, func() error {
		settledNow = false
		return s.store.ExecuteInTransaction(func(tx repositories.Store) error {
			txn, err := tx.Transactions().GetByID(ctx, transactionID)
			if err != nil {
				if errors.Is(err, repositories.ErrTransactionNotFound) {
					return ErrTransactionNotFound
				}
				return err
			}
			if txn.Terminal() {
				settled = txn
				return nil
			}

			if txn.SourceWalletID != nil {
				if _, err := tx.Wallets().AdjustBalance(ctx, *txn.SourceWalletID, txn.Amount.Neg()); err != nil {
					return err
				}
			}
			if _, err := tx.Wallets().AdjustBalance(ctx, txn.DestinationWalletID, txn.Amount); err != nil {
				return err
			}

			now := time.Now()
			ok, err := tx.Transactions().MarkSettled(ctx, txn.TransactionID,
				models.TransactionStatusSuccess, "", now)
			if err != nil {
				return err
			}
			if !ok {
				return errConcurrentSettle
			}

			txn.Status = models.TransactionStatusSuccess
			txn.ExecutedAt = &now
			settled = txn
			settledNow = true
			return nil
		})
	})
	if err != nil {
		return s.recordFailure(ctx, transactionID, err)
	}

	if settledNow {
		s.collector.RecordTransaction(settled.Type, settled.Amount.InexactFloat64())
		s.invalidateWallets(ctx, settled.SourceWalletID, settled.DestinationWalletID)
		s.recordTrustOutcome(ctx, settled, true)
		s.log.Info("transaction settled",
			zap.String("transaction_id", settled.TransactionID.String()),
			zap.String("type", settled.Type),
			zap.String("amount", settled.Amount.String()))
	}
	return settled, nil
}

// recordFailure writes the terminal FAILED state for a settlement that
// rolled back, then surfaces the domain error to the caller.
func (s *service) recordFailure(ctx context.Context, transactionID uuid.UUID, cause error) (*models.Transaction, error) {
	if errors.Is(cause, ErrTransactionNotFound) {
		return nil, cause
	}

	reason, domainErr := classifyFailure(cause)
	now := time.Now()
	if _, markErr := s.store.Transactions().MarkSettled(ctx, transactionID,
		models.TransactionStatusFailed, reason, now); markErr != nil {
		s.log.Error("failed to record transaction failure",
			zap.String("transaction_id", transactionID.String()),
			zap.Error(markErr))
	}
	s.collector.RecordError("settle", reason)

	txn, getErr := s.store.Transactions().GetByID(ctx, transactionID)
	if getErr == nil {
		s.recordTrustOutcome(ctx, txn, false)
	}

	s.log.Warn("settlement failed",
		zap.String("transaction_id", transactionID.String()),
		zap.String("reason", reason),
		zap.Error(cause))
	return txn, domainErr
}

// recordTrustOutcome feeds a terminal cross-group outcome into the trust
// score for the pair. Best effort: the settlement result stands either way.
func (s *service) recordTrustOutcome(ctx context.Context, txn *models.Transaction, success bool) {
	if txn == nil || txn.SourceWalletID == nil {
		return
	}
	source, err := s.store.Wallets().GetByID(ctx, *txn.SourceWalletID)
	if err != nil {
		return
	}
	dest, err := s.store.Wallets().GetByID(ctx, txn.DestinationWalletID)
	if err != nil {
		return
	}
	if !crossGroup(source, dest) {
		return
	}
	if err := s.exchange.RecordOutcome(ctx, *source.OwnerGroupID, *dest.OwnerGroupID, txn.Amount, success); err != nil {
		s.log.Warn("trust outcome not recorded",
			zap.String("transaction_id", txn.TransactionID.String()),
			zap.Error(err))
	}
}

// invalidateWallets evicts the cached reads of the wallets a settlement
// touched. Best effort: a failed eviction expires with the cache TTL.
func (s *service) invalidateWallets(ctx context.Context, sourceID *uuid.UUID, destID uuid.UUID) {
	if sourceID != nil {
		if err := s.cache.InvalidateWallet(ctx, *sourceID); err != nil {
			s.log.Warn("wallet cache invalidate failed", zap.Error(err))
		}
	}
	if err := s.cache.InvalidateWallet(ctx, destID); err != nil {
		s.log.Warn("wallet cache invalidate failed", zap.Error(err))
	}
}

func classifyFailure(err error) (reason string, domainErr error) {
	switch {
	case errors.Is(err, repositories.ErrInsufficientFunds):
		return models.ReasonInsufficientFunds, ErrInsufficientFunds
	case errors.Is(err, repositories.ErrWalletInactive):
		return models.ReasonWalletInactive, ErrWalletInactive
	case errors.Is(err, repositories.ErrWalletNotFound):
		return models.ReasonWalletNotFound, ErrWalletNotFound
	}
	return models.ReasonSettlementError, fmt.Errorf("settlement: %w", err)
}

func (s *service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxSettleAttempts; attempt++ {
		err = fn()
		if err == nil || !retryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBaseDelay * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
}

func retryable(err error) bool {
	if errors.Is(err, errConcurrentSettle) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableSQLStates[pgErr.Code]
	}
	return false
}
