// Package payment handles group-to-student payment requests. Paying a
// request settles a regular CREDITS ledger transfer from the student to the
// group; the PAID flip and the transfer commit in one storage transaction.
package payment

import (
	"context"
	"errors"
	"fmt"

	"campusledger/internal/models"
	"campusledger/internal/repositories"
	"campusledger/internal/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateRequest(ctx context.Context, req CreateRequest) (*models.PaymentRequest, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRequest, error)

	// Respond resolves a PENDING request on behalf of the student it was
	// addressed to. PAY transfers the amount from the student's CREDITS
	// wallet to the group's and marks the request PAID; REJECT marks it
	// REJECTED with no value movement.
	Respond(ctx context.Context, requestID, studentUserID uuid.UUID, action string) (*RespondResult, error)

	ListStudentRequests(ctx context.Context, studentUserID uuid.UUID) ([]*models.PaymentRequest, error)
	ListGroupRequests(ctx context.Context, groupID uuid.UUID) ([]*models.PaymentRequest, error)
}

type service struct {
	store  repositories.Store
	ledger ledger.Service
	log    *zap.Logger
}

func NewService(store repositories.Store, lg ledger.Service, log *zap.Logger) Service {
	if store == nil {
		panic("payment: store is required")
	}
	if lg == nil {
		panic("payment: ledger service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: store, ledger: lg, log: log}
}

func (s *service) CreateRequest(ctx context.Context, req CreateRequest) (*models.PaymentRequest, error) {
	if req.BDEGroupID == uuid.Nil || req.StudentUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: group and student ids are required", ErrInvalidRequest)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}

	pr := &models.PaymentRequest{
		BDEGroupID:    req.BDEGroupID,
		StudentUserID: req.StudentUserID,
		Amount:        req.Amount,
		Description:   req.Description,
		Status:        models.PaymentRequestStatusPending,
	}
	if err := s.store.PaymentRequests().Create(ctx, pr); err != nil {
		return nil, err
	}

	s.log.Info("payment request created",
		zap.String("request_id", pr.RequestID.String()),
		zap.String("amount", pr.Amount.String()))
	return pr, nil
}

func (s *service) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRequest, error) {
	pr, err := s.store.PaymentRequests().GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return pr, nil
}

func (s *service) Respond(ctx context.Context, requestID, studentUserID uuid.UUID, action string) (*RespondResult, error) {
	pr, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if pr.StudentUserID != studentUserID {
		return nil, ErrForbidden
	}
	if pr.Status != models.PaymentRequestStatusPending {
		return nil, ErrAlreadyProcessed
	}

	switch action {
	case models.PaymentRequestActionPay:
		return s.pay(ctx, pr)
	case models.PaymentRequestActionReject:
		return s.reject(ctx, pr)
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
}

func (s *service) pay(ctx context.Context, pr *models.PaymentRequest) (*RespondResult, error) {
	result := &RespondResult{Request: pr}
	err := s.store.ExecuteInTransaction(func(tx repositories.Store) error {
		// Claim the request before moving money. The guarded flip is what
		// keeps two concurrent PAY responses from both debiting the student:
		// only one finds a PENDING row to flip.
		ok, err := tx.PaymentRequests().SetStatus(ctx, pr.RequestID, models.PaymentRequestStatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}

		// A failed transfer rolls the claim back with it, so the request
		// stays PENDING and the student can retry after topping up.
		result.Transaction, err = s.ledger.TransferCreditsInTx(ctx, tx, pr.StudentUserID, pr.BDEGroupID, pr.Amount,
			models.TransactionTypePayment, fmt.Sprintf("Payment request %s", pr.RequestID))
		return err
	})
	if err != nil {
		return nil, err
	}
	pr.Status = models.PaymentRequestStatusPaid

	s.log.Info("payment request paid",
		zap.String("request_id", pr.RequestID.String()),
		zap.String("transaction_id", result.Transaction.TransactionID.String()))
	return result, nil
}

func (s *service) reject(ctx context.Context, pr *models.PaymentRequest) (*RespondResult, error) {
	ok, err := s.store.PaymentRequests().SetStatus(ctx, pr.RequestID, models.PaymentRequestStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}
	pr.Status = models.PaymentRequestStatusRejected

	s.log.Info("payment request rejected", zap.String("request_id", pr.RequestID.String()))
	return &RespondResult{Request: pr}, nil
}

func (s *service) ListStudentRequests(ctx context.Context, studentUserID uuid.UUID) ([]*models.PaymentRequest, error) {
	return s.store.PaymentRequests().ListPendingByStudent(ctx, studentUserID)
}

func (s *service) ListGroupRequests(ctx context.Context, groupID uuid.UUID) ([]*models.PaymentRequest, error) {
	return s.store.PaymentRequests().ListByGroup(ctx, groupID)
}
