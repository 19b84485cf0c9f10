package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRequestRepository persists group-to-student invoices.
type PaymentRequestRepository interface {
	Create(ctx context.Context, req *models.PaymentRequest) error
	GetByID(ctx context.Context, requestID uuid.UUID) (*models.PaymentRequest, error)
	// SetStatus flips a PENDING request to a terminal status; false means
	// it was already processed.
	SetStatus(ctx context.Context, requestID uuid.UUID, status string) (bool, error)
	ListPendingByStudent(ctx context.Context, studentUserID uuid.UUID) ([]*models.PaymentRequest, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.PaymentRequest, error)
}

type paymentRequestRepository struct {
	db *gorm.DB
}

func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) Create(ctx context.Context, req *models.PaymentRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}
	return nil
}

func (r *paymentRequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.WithContext(ctx).First(&req, "request_id = ?", requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get payment request: %w", err)
	}
	return &req, nil
}

func (r *paymentRequestRepository) SetStatus(ctx context.Context, requestID uuid.UUID, status string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).
		Where("request_id = ? AND status = ?", requestID, models.PaymentRequestStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to set payment request status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *paymentRequestRepository) ListPendingByStudent(ctx context.Context, studentUserID uuid.UUID) ([]*models.PaymentRequest, error) {
	var reqs []*models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("student_user_id = ? AND status = ?", studentUserID, models.PaymentRequestStatusPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list student payment requests: %w", err)
	}
	return reqs, nil
}

func (r *paymentRequestRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.PaymentRequest, error) {
	var reqs []*models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("bde_group_id = ?", groupID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list group payment requests: %w", err)
	}
	return reqs, nil
}
