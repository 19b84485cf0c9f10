// Package purchase fulfills credit pack orders after the external payment
// provider confirms capture. Payment capture itself happens outside this
// system; FulfillOrder only runs on a confirmed order reference.
package purchase

import (
	"context"
	"fmt"

	"campusledger/internal/models"
	"campusledger/internal/repositories"
	"campusledger/internal/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// FulfillOrder credits the purchased pack to the student's CREDITS
	// wallet and records the EUR revenue on the group's wallet. Both
	// credits commit in one storage transaction.
	FulfillOrder(ctx context.Context, studentUserID, groupID uuid.UUID, productID, orderRef string) (*FulfillResult, error)

	ListPacks() []Pack
}

// FulfillResult reports the two ledger rows a fulfillment produced.
type FulfillResult struct {
	Pack       Pack                `json:"pack"`
	CreditTxn  *models.Transaction `json:"credit_transaction"`
	RevenueTxn *models.Transaction `json:"revenue_transaction"`
}

// Crediter issues a credit inside the caller's storage transaction.
// Satisfied by the ledger service.
type Crediter interface {
	CreditInTx(ctx context.Context, store repositories.Store, req ledger.CreditRequest) (*models.Transaction, error)
}

type service struct {
	store    repositories.Store
	crediter Crediter
	log      *zap.Logger
}

func NewService(store repositories.Store, crediter Crediter, log *zap.Logger) Service {
	if store == nil {
		panic("purchase: store is required")
	}
	if crediter == nil {
		panic("purchase: crediter is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, crediter: crediter, log: log}
}

func (s *service) ListPacks() []Pack {
	return Packs()
}

func (s *service) FulfillOrder(ctx context.Context, studentUserID, groupID uuid.UUID, productID, orderRef string) (*FulfillResult, error) {
	if studentUserID == uuid.Nil || groupID == uuid.Nil {
		return nil, fmt.Errorf("%w: student and group ids are required", ErrInvalidOrder)
	}
	if orderRef == "" {
		return nil, fmt.Errorf("%w: order reference is required", ErrInvalidOrder)
	}
	pack, ok := packs[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProduct, productID)
	}

	result := &FulfillResult{Pack: pack}
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		student, err := tx.Wallets().GetUserWallet(ctx, studentUserID, models.CurrencyCredits)
		if err != nil {
			return err
		}
		revenue, err := tx.Wallets().GetOrCreateGroupWallet(ctx, groupID, models.CurrencyEUR)
		if err != nil {
			return err
		}

		meta := map[string]interface{}{
			"product_id": pack.ProductID,
			"order_ref":  orderRef,
		}
		result.CreditTxn, err = s.crediter.CreditInTx(ctx, tx, ledger.CreditRequest{
			InitiatorUserID:     &studentUserID,
			DestinationWalletID: student.WalletID,
			Amount:              pack.Credits,
			Type:                models.TransactionTypeCashIn,
			Description:         fmt.Sprintf("Credit pack %s", pack.ProductID),
			Metadata:            meta,
		})
		if err != nil {
			return err
		}

		result.RevenueTxn, err = s.crediter.CreditInTx(ctx, tx, ledger.CreditRequest{
			InitiatorUserID:     &studentUserID,
			DestinationWalletID: revenue.WalletID,
			Amount:              pack.PriceEUR,
			Type:                models.TransactionTypePurchase,
			Description:         fmt.Sprintf("Revenue for credit pack %s", pack.ProductID),
			Metadata:            meta,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("purchase fulfilled",
		zap.String("product_id", pack.ProductID),
		zap.String("order_ref", orderRef),
		zap.String("student_user_id", studentUserID.String()))
	return result, nil
}
