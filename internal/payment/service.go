// Package payment records payment attempts and drives the mess pass balance
// changes that recharge and meal payments imply.
package payment

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/messpass"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
)

// Business-rule errors surfaced to callers.
var (
	// ErrPaymentNotFound indicates no payment exists with the given id or key.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Service couples the payment ledger with the mess pass manager.
type Service struct {
	db     *gorm.DB
	passes *messpass.Manager
}

// NewService constructs a Service.
func NewService(db *gorm.DB, passes *messpass.Manager) *Service {
	return &Service{db: db, passes: passes}
}

// Create records a generic payment attempt with status PENDING. It never
// touches a mess pass, even for the recharge payment type; recharges that
// should move a balance go through ProcessRecharge.
func (s *Service) Create(ctx context.Context, userID uint64, amountCents int64, paymentType models.PaymentType, description string) (*models.Payment, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	txnID, errGenerate := security.GenerateTransactionID()
	if errGenerate != nil {
		return nil, errGenerate
	}

	payment := models.Payment{
		UserID:        userID,
		AmountCents:   amountCents,
		PaymentType:   paymentType,
		Status:        models.PaymentStatusPending,
		TransactionID: txnID,
		Description:   description,
	}
	if errCreate := s.db.WithContext(ctx).Create(&payment).Error; errCreate != nil {
		return nil, errCreate
	}

	log.WithFields(log.Fields{
		"transaction_id": payment.TransactionID,
		"user_id":        userID,
		"payment_type":   paymentType,
	}).Info("payment recorded")
	return &payment, nil
}

// ProcessRecharge records a COMPLETED recharge payment linked to the pass and
// applies the balance increase. Both writes run in one transaction: if the
// balance update fails, the ledger row is rolled back with it, so the ledger
// never claims a recharge that did not happen.
func (s *Service) ProcessRecharge(ctx context.Context, userID uint64, passID uint64, amountCents int64) (*models.Payment, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	txnID, errGenerate := security.GenerateTransactionID()
	if errGenerate != nil {
		return nil, errGenerate
	}

	var recorded *models.Payment
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment := models.Payment{
			UserID:        userID,
			MessPassID:    &passID,
			AmountCents:   amountCents,
			PaymentType:   models.PaymentTypeMessPassRecharge,
			Status:        models.PaymentStatusCompleted,
			TransactionID: txnID,
			Description:   "Mess pass recharge",
		}
		if errCreate := tx.Create(&payment).Error; errCreate != nil {
			return errCreate
		}

		if _, errRecharge := s.passes.RechargeTx(tx, passID, amountCents); errRecharge != nil {
			return errRecharge
		}

		recorded = &payment
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	log.WithFields(log.Fields{
		"transaction_id": recorded.TransactionID,
		"pass_id":        passID,
		"amount_cents":   amountCents,
	}).Info("mess pass recharge processed")
	return recorded, nil
}

// ProcessMealPayment deducts the amount from the pass and records a COMPLETED
// meal payment in the same transaction.
func (s *Service) ProcessMealPayment(ctx context.Context, userID uint64, passID uint64, amountCents int64, description string) (*models.Payment, error) {
	var recorded *models.Payment
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, errPay := s.ProcessMealPaymentTx(tx, userID, passID, amountCents, description)
		if errPay != nil {
			return errPay
		}
		recorded = payment
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return recorded, nil
}

// ProcessMealPaymentTx records the COMPLETED meal payment and applies the
// balance deduction within the caller's transaction, so callers can couple
// further writes (such as an order status change) to the same commit.
func (s *Service) ProcessMealPaymentTx(tx *gorm.DB, userID uint64, passID uint64, amountCents int64, description string) (*models.Payment, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	txnID, errGenerate := security.GenerateTransactionID()
	if errGenerate != nil {
		return nil, errGenerate
	}

	payment := models.Payment{
		UserID:        userID,
		MessPassID:    &passID,
		AmountCents:   amountCents,
		PaymentType:   models.PaymentTypeMealPayment,
		Status:        models.PaymentStatusCompleted,
		TransactionID: txnID,
		Description:   description,
	}
	if errCreate := tx.Create(&payment).Error; errCreate != nil {
		return nil, errCreate
	}

	if _, errDeduct := s.passes.DeductTx(tx, passID, amountCents); errDeduct != nil {
		return nil, errDeduct
	}

	log.WithFields(log.Fields{
		"transaction_id": payment.TransactionID,
		"pass_id":        passID,
		"amount_cents":   amountCents,
	}).Info("meal payment processed")
	return &payment, nil
}

// ListByUser returns the user's payments, most recent first.
func (s *Service) ListByUser(ctx context.Context, userID uint64) ([]models.Payment, error) {
	var payments []models.Payment
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error; errFind != nil {
		return nil, errFind
	}
	return payments, nil
}

// ListByStatus returns all payments with the given status.
func (s *Service) ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	var payments []models.Payment
	if errFind := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&payments).Error; errFind != nil {
		return nil, errFind
	}
	return payments, nil
}

// GetByTransactionID returns the payment with the given transaction id.
func (s *Service) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	if errFind := s.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, errFind
	}
	return &payment, nil
}

// UpdateStatus overwrites the payment status. Used by operators to settle
// PENDING payments or flag refunds.
func (s *Service) UpdateStatus(ctx context.Context, paymentID uint64, status models.PaymentStatus) (*models.Payment, error) {
	var payment models.Payment
	if errFind := s.db.WithContext(ctx).First(&payment, paymentID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, errFind
	}

	if errUpdate := s.db.WithContext(ctx).Model(&payment).Update("status", status).Error; errUpdate != nil {
		return nil, errUpdate
	}
	payment.Status = status

	log.WithFields(log.Fields{
		"payment_id": paymentID,
		"status":     status,
	}).Info("payment status updated")
	return &payment, nil
}

// ListByTypeAndRange returns payments of the given type created within the
// inclusive [start, end] window, for reporting.
func (s *Service) ListByTypeAndRange(ctx context.Context, paymentType models.PaymentType, start, end time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	if errFind := s.db.WithContext(ctx).
		Where("payment_type = ? AND created_at >= ? AND created_at <= ?", paymentType, start, end).
		Order("created_at ASC").
		Find(&payments).Error; errFind != nil {
		return nil, errFind
	}
	return payments, nil
}
