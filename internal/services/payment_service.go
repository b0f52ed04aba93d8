package services

import (
	"context"
	"encoding/json"
	"fmt"

	"bridge-backend/internal/models"
	"bridge-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PaymentService owns the durable payment request records.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	accountRepo repository.AccountRepository
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, accountRepo repository.AccountRepository) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo, accountRepo: accountRepo}
}

// CreatePayment creates a payment request for email, snapshotting the
// account's current smart wallets. Amount stays a decimal string here;
// conversion to smallest units happens when a transfer starts.
func (s *PaymentService) CreatePayment(ctx context.Context, email, amount, description string) (*models.PaymentRequest, error) {
	walletsJSON := "[]"
	if account, err := s.accountRepo.GetByEmail(ctx, email); err == nil {
		if data, err := json.Marshal(account.Wallets); err == nil {
			walletsJSON = string(data)
		}
	}

	payment := &models.PaymentRequest{
		PayID:       uuid.New().String(),
		Email:       email,
		Wallets:     walletsJSON,
		Amount:      amount,
		Status:      models.PaymentStatusPending,
		Description: description,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"payid":  payment.PayID,
		"email":  email,
		"amount": amount,
	}).Info("payment request created")
	return payment, nil
}

// GetPayment returns the payment request for payid.
func (s *PaymentService) GetPayment(ctx context.Context, payid string) (*models.PaymentRequest, error) {
	return s.paymentRepo.GetByPayID(ctx, payid)
}

// ListPaymentsByEmail returns all payment requests for an email.
func (s *PaymentService) ListPaymentsByEmail(ctx context.Context, email string) ([]*models.PaymentRequest, error) {
	return s.paymentRepo.FindByEmail(ctx, email)
}

// UpdateStatus records transfer progress on the durable payment record.
func (s *PaymentService) UpdateStatus(ctx context.Context, payid string, status models.PaymentStatus, txHash string) error {
	if err := s.paymentRepo.UpdateStatus(ctx, payid, status, txHash); err != nil {
		return fmt.Errorf("update payment %s: %w", payid, err)
	}
	return nil
}
