package repository

import (
	"context"

	"bridge-backend/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment request data access
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.PaymentRequest) error
	GetByPayID(ctx context.Context, payid string) (*models.PaymentRequest, error)
	FindByEmail(ctx context.Context, email string) ([]*models.PaymentRequest, error)
	UpdateStatus(ctx context.Context, payid string, status models.PaymentStatus, txHash string) error
	List(ctx context.Context, page, pageSize int) ([]*models.PaymentRequest, int64, error)
}

// paymentRepository implements PaymentRepository
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment request
func (r *paymentRepository) Create(ctx context.Context, payment *models.PaymentRequest) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByPayID retrieves a payment request by its payid
func (r *paymentRepository) GetByPayID(ctx context.Context, payid string) (*models.PaymentRequest, error) {
	var payment models.PaymentRequest
	err := r.db.WithContext(ctx).Where("pay_id = ?", payid).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByEmail retrieves all payment requests for an email, newest first
func (r *paymentRepository) FindByEmail(ctx context.Context, email string) ([]*models.PaymentRequest, error) {
	var payments []*models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// UpdateStatus updates the status (and transaction hash, when non-empty) of a payment
func (r *paymentRepository) UpdateStatus(ctx context.Context, payid string, status models.PaymentStatus, txHash string) error {
	updates := map[string]interface{}{"status": status}
	if txHash != "" {
		updates["tx_hash"] = txHash
	}
	return r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("pay_id = ?", payid).
		Updates(updates).Error
}

// List returns a page of payment requests with the total count
func (r *paymentRepository) List(ctx context.Context, page, pageSize int) ([]*models.PaymentRequest, int64, error) {
	var payments []*models.PaymentRequest
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&payments).Error
	return payments, total, err
}
