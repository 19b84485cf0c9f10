// Package ledger is the transaction engine. Every value movement becomes an
// immutable transaction row that starts PENDING and settles synchronously to
// SUCCESS, FAILED or CANCELED. Settlement debits and credits atomically
// inside one storage transaction; a failed settlement leaves both balances
// untouched and records the failure reason on the row.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/metrics"
	"campusledger/internal/models"
	"campusledger/internal/repositories"
	"campusledger/internal/services/exchange"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	// Transfer validates and executes a wallet-to-wallet transfer. When an
	// exchange rule marks the group pair as requiring approval, the returned
	// transaction stays PENDING and must later go through Settle or Cancel.
	Transfer(ctx context.Context, req TransferRequest) (*models.Transaction, error)

	// ExternalCredit issues value into a wallet with no source to debit.
	ExternalCredit(ctx context.Context, req CreditRequest) (*models.Transaction, error)

	// CreditInTx performs an external credit on the caller's transaction-scoped
	// store, so the credit commits or rolls back with the caller's own writes.
	CreditInTx(ctx context.Context, store repositories.Store, req CreditRequest) (*models.Transaction, error)

	// TransferCredits resolves the CREDITS wallets of a user and a group and
	// transfers between them, creating the group wallet on first use.
	TransferCredits(ctx context.Context, fromUserID, toGroupID uuid.UUID, amount decimal.Decimal, txType, description string) (*models.Transaction, error)

	// TransferCreditsInTx performs the same transfer on the caller's
	// transaction-scoped store: the debit, the credit and the caller's own
	// writes commit or roll back together.
	TransferCreditsInTx(ctx context.Context, store repositories.Store, fromUserID, toGroupID uuid.UUID, amount decimal.Decimal, txType, description string) (*models.Transaction, error)

	// Settle executes a PENDING transaction. Settling a transaction that has
	// already reached a terminal status returns it unchanged.
	Settle(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)

	// Cancel voids a PENDING transaction. initiatorID, when non-nil, must
	// match the transaction's initiator.
	Cancel(ctx context.Context, transactionID uuid.UUID, initiatorID *uuid.UUID) (*models.Transaction, error)

	GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error)
	GetHistory(ctx context.Context, walletID uuid.UUID, opts repositories.HistoryOptions) ([]HistoryEntry, error)
}

type service struct {
	store     repositories.Store
	exchange  exchange.Service
	collector metrics.Collector
	cache     CacheInvalidator
	log       *zap.Logger
}

func NewService(store repositories.Store, xc exchange.Service, collector metrics.Collector, cache CacheInvalidator, log *zap.Logger) Service {
	if store == nil {
		panic("ledger: store is required")
	}
	if xc == nil {
		panic("ledger: exchange service is required")
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if cache == nil {
		cache = nopInvalidator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, exchange: xc, collector: collector, cache: cache, log: log}
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (*models.Transaction, error) {
	started := time.Now()
	defer func() { s.collector.RecordOperationDuration("transfer", time.Since(started)) }()

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.SourceWalletID == req.DestinationWalletID {
		return nil, ErrSameWallet
	}

	source, err := s.getWallet(ctx, req.SourceWalletID)
	if err != nil {
		return nil, err
	}
	dest, err := s.getWallet(ctx, req.DestinationWalletID)
	if err != nil {
		return nil, err
	}

	if source.Currency != dest.Currency {
		return nil, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, source.Currency, dest.Currency)
	}
	if source.Status != models.WalletStatusActive {
		return nil, fmt.Errorf("%w: source wallet", ErrWalletInactive)
	}
	if dest.Status != models.WalletStatusActive {
		return nil, fmt.Errorf("%w: destination wallet", ErrWalletInactive)
	}

	// Funds are checked against the available balance, so PENDING outgoing
	// amounts cannot be promised twice. The settlement guard re-checks.
	pending, err := s.store.Transactions().SumPendingOutgoing(ctx, source.WalletID)
	if err != nil {
		return nil, fmt.Errorf("sum pending outgoing: %w", err)
	}
	if source.Balance.Sub(pending).LessThan(req.Amount) {
		s.collector.RecordError("transfer", "insufficient_funds")
		return nil, ErrInsufficientFunds
	}

	requiresApproval := false
	if crossGroup(source, dest) {
		verdict, err := s.exchange.ValidateTransfer(ctx, *source.OwnerGroupID, *dest.OwnerGroupID, req.Amount)
		if err != nil {
			s.collector.RecordError("transfer", "rule_rejected")
			return nil, err
		}
		requiresApproval = verdict.RequiresApproval
	}

	txType := req.Type
	if txType == "" {
		txType = models.TransactionTypeP2P
	}
	sourceID := req.SourceWalletID
	txn := &models.Transaction{
		InitiatorUserID:     initiatorRef(req.InitiatorUserID),
		SourceWalletID:      &sourceID,
		DestinationWalletID: req.DestinationWalletID,
		Amount:              req.Amount,
		Currency:            source.Currency,
		Type:                txType,
		Direction:           models.DirectionOutgoing,
		Status:              models.TransactionStatusPending,
		Description:         req.Description,
		Metadata:            models.NewJSON(req.Metadata),
	}
	if err := s.store.Transactions().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if requiresApproval {
		s.log.Info("transfer awaiting approval",
			zap.String("transaction_id", txn.TransactionID.String()),
			zap.String("amount", req.Amount.String()))
		return txn, nil
	}
	return s.settle(ctx, txn.TransactionID)
}

func (s *service) ExternalCredit(ctx context.Context, req CreditRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	dest, err := s.getWallet(ctx, req.DestinationWalletID)
	if err != nil {
		return nil, err
	}
	if dest.Status != models.WalletStatusActive {
		return nil, ErrWalletInactive
	}

	txn := creditRow(req, dest.Currency)
	if err := s.store.Transactions().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return s.settle(ctx, txn.TransactionID)
}

func (s *service) CreditInTx(ctx context.Context, store repositories.Store, req CreditRequest) (*models.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	dest, err := store.Wallets().GetByID(ctx, req.DestinationWalletID)
	if err != nil {
		return nil, mapWalletErr(err)
	}

	txn := creditRow(req, dest.Currency)
	if err := store.Transactions().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if _, err := store.Wallets().AdjustBalance(ctx, txn.DestinationWalletID, txn.Amount); err != nil {
		return nil, mapWalletErr(err)
	}
	now := time.Now()
	if _, err := store.Transactions().MarkSettled(ctx, txn.TransactionID, models.TransactionStatusSuccess, "", now); err != nil {
		return nil, err
	}
	txn.Status = models.TransactionStatusSuccess
	txn.ExecutedAt = &now

	s.collector.RecordTransaction(txn.Type, txn.Amount.InexactFloat64())
	s.invalidateWallets(ctx, nil, txn.DestinationWalletID)
	return txn, nil
}

func (s *service) TransferCredits(ctx context.Context, fromUserID, toGroupID uuid.UUID, amount decimal.Decimal, txType, description string) (*models.Transaction, error) {
	source, err := s.store.Wallets().GetUserWallet(ctx, fromUserID, models.CurrencyCredits)
	if err != nil {
		return nil, mapWalletErr(err)
	}
	dest, err := s.store.Wallets().GetOrCreateGroupWallet(ctx, toGroupID, models.CurrencyCredits)
	if err != nil {
		return nil, mapWalletErr(err)
	}

	return s.Transfer(ctx, TransferRequest{
		InitiatorUserID:     fromUserID,
		SourceWalletID:      source.WalletID,
		DestinationWalletID: dest.WalletID,
		Amount:              amount,
		Type:                txType,
		Description:         description,
	})
}

func (s *service) TransferCreditsInTx(ctx context.Context, store repositories.Store, fromUserID, toGroupID uuid.UUID, amount decimal.Decimal, txType, description string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	source, err := store.Wallets().GetUserWallet(ctx, fromUserID, models.CurrencyCredits)
	if err != nil {
		return nil, mapWalletErr(err)
	}
	dest, err := store.Wallets().GetOrCreateGroupWallet(ctx, toGroupID, models.CurrencyCredits)
	if err != nil {
		return nil, mapWalletErr(err)
	}
	if source.Status != models.WalletStatusActive {
		return nil, fmt.Errorf("%w: source wallet", ErrWalletInactive)
	}

	pending, err := store.Transactions().SumPendingOutgoing(ctx, source.WalletID)
	if err != nil {
		return nil, fmt.Errorf("sum pending outgoing: %w", err)
	}
	if source.Balance.Sub(pending).LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	if txType == "" {
		txType = models.TransactionTypeP2P
	}
	sourceID := source.WalletID
	txn := &models.Transaction{
		InitiatorUserID:     initiatorRef(fromUserID),
		SourceWalletID:      &sourceID,
		DestinationWalletID: dest.WalletID,
		Amount:              amount,
		Currency:            models.CurrencyCredits,
		Type:                txType,
		Direction:           models.DirectionOutgoing,
		Status:              models.TransactionStatusPending,
		Description:         description,
	}
	if err := store.Transactions().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if _, err := store.Wallets().AdjustBalance(ctx, sourceID, amount.Neg()); err != nil {
		return nil, mapWalletErr(err)
	}
	if _, err := store.Wallets().AdjustBalance(ctx, dest.WalletID, amount); err != nil {
		return nil, mapWalletErr(err)
	}
	now := time.Now()
	if _, err := store.Transactions().MarkSettled(ctx, txn.TransactionID, models.TransactionStatusSuccess, "", now); err != nil {
		return nil, err
	}
	txn.Status = models.TransactionStatusSuccess
	txn.ExecutedAt = &now

	s.collector.RecordTransaction(txn.Type, txn.Amount.InexactFloat64())
	s.invalidateWallets(ctx, txn.SourceWalletID, txn.DestinationWalletID)
	return txn, nil
}

func (s *service) Settle(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	return s.settle(ctx, transactionID)
}

func (s *service) Cancel(ctx context.Context, transactionID uuid.UUID, initiatorID *uuid.UUID) (*models.Transaction, error) {
	txn, err := s.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if initiatorID != nil && (txn.InitiatorUserID == nil || *txn.InitiatorUserID != *initiatorID) {
		return nil, ErrNotOwner
	}
	if txn.Status != models.TransactionStatusPending {
		return nil, fmt.Errorf("%w: status %s", ErrNotPending, txn.Status)
	}

	now := time.Now()
	ok, err := s.store.Transactions().MarkSettled(ctx, transactionID,
		models.TransactionStatusCanceled, models.ReasonUserCanceled, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent settle or cancel got there first.
		txn, err = s.GetTransaction(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: status %s", ErrNotPending, txn.Status)
	}

	s.log.Info("transaction canceled", zap.String("transaction_id", transactionID.String()))
	return s.GetTransaction(ctx, transactionID)
}

func (s *service) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.store.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) GetHistory(ctx context.Context, walletID uuid.UUID, opts repositories.HistoryOptions) ([]HistoryEntry, error) {
	txns, err := s.store.Transactions().ListByWallet(ctx, walletID, opts)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(txns))
	for _, txn := range txns {
		signed := txn.Amount
		if txn.SourceWalletID != nil && *txn.SourceWalletID == walletID {
			signed = signed.Neg()
		}
		entries = append(entries, HistoryEntry{Transaction: txn, SignedAmount: signed})
	}
	return entries, nil
}

func (s *service) getWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	w, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		return nil, mapWalletErr(err)
	}
	return w, nil
}

func mapWalletErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrWalletNotFound):
		return ErrWalletNotFound
	case errors.Is(err, repositories.ErrWalletInactive):
		return ErrWalletInactive
	case errors.Is(err, repositories.ErrInsufficientFunds):
		return ErrInsufficientFunds
	}
	return err
}

func crossGroup(source, dest *models.Wallet) bool {
	return source.OwnerGroupID != nil && dest.OwnerGroupID != nil &&
		*source.OwnerGroupID != *dest.OwnerGroupID
}

func initiatorRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func creditRow(req CreditRequest, currency string) *models.Transaction {
	txType := req.Type
	if txType == "" {
		txType = models.TransactionTypeCashIn
	}
	return &models.Transaction{
		InitiatorUserID:     req.InitiatorUserID,
		SourceWalletID:      nil,
		DestinationWalletID: req.DestinationWalletID,
		Amount:              req.Amount,
		Currency:            currency,
		Type:                txType,
		Direction:           models.DirectionIncoming,
		Status:              models.TransactionStatusPending,
		Description:         req.Description,
		Metadata:            models.NewJSON(req.Metadata),
	}
}
