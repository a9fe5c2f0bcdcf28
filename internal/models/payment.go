package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentType classifies a payment attempt.
type PaymentType string

// PaymentType values.
const (
	PaymentTypeMessPassRecharge PaymentType = "MESS_PASS_RECHARGE"
	PaymentTypeMealPayment      PaymentType = "MEAL_PAYMENT"
	PaymentTypeRefund           PaymentType = "REFUND"
)

// ParsePaymentType validates a free-text payment type.
func ParsePaymentType(raw string) (PaymentType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch PaymentType(normalized) {
	case PaymentTypeMessPassRecharge, PaymentTypeMealPayment, PaymentTypeRefund:
		return PaymentType(normalized), nil
	default:
		return "", fmt.Errorf("unknown payment type: %s", raw)
	}
}

// PaymentStatus tracks the outcome of a payment attempt.
type PaymentStatus string

// PaymentStatus values.
const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus validates a free-text payment status.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch PaymentStatus(normalized) {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return PaymentStatus(normalized), nil
	default:
		return "", fmt.Errorf("unknown payment status: %s", raw)
	}
}

// Payment is one row of the append-mostly payment ledger.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Paying user.
	User   *User  `gorm:"foreignKey:UserID"` // Payer record.

	MessPassID *uint64   `gorm:"index"`                 // Linked pass, recharge payments only.
	MessPass   *MessPass `gorm:"foreignKey:MessPassID"` // Linked pass record.

	AmountCents int64 `gorm:"not null"` // Payment amount in cents.

	PaymentType PaymentType   `gorm:"type:varchar(32);not null"`                   // Payment classification.
	Status      PaymentStatus `gorm:"type:varchar(16);not null;default:'PENDING'"` // Current outcome.

	TransactionID string `gorm:"type:text;not null;uniqueIndex"` // Globally unique transaction id.
	Description   string `gorm:"type:text"`                      // Free-text note.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
