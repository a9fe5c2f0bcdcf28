package models

import (
	"fmt"
	"strings"
	"time"
)

// PassType enumerates the validity classes a mess pass can be issued with.
type PassType string

// PassType values.
const (
	PassTypeMonthly  PassType = "MONTHLY"
	PassTypeSemester PassType = "SEMESTER"
	PassTypeAnnual   PassType = "ANNUAL"
	PassTypeDaily    PassType = "DAILY"
)

// ParsePassType validates a free-text pass type.
func ParsePassType(raw string) (PassType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch PassType(normalized) {
	case PassTypeMonthly, PassTypeSemester, PassTypeAnnual, PassTypeDaily:
		return PassType(normalized), nil
	default:
		return "", fmt.Errorf("unknown pass type: %s", raw)
	}
}

// MessPass represents a prepaid meal account held by one user.
// At most one active pass exists per user at any time.
type MessPass struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`      // Owning user.
	User   *User  `gorm:"foreignKey:UserID"`   // Owner record.

	PassNumber string   `gorm:"type:text;not null;uniqueIndex"` // Human-facing pass number.
	PassType   PassType `gorm:"type:varchar(16);not null"`      // Validity class.

	ValidFrom  time.Time `gorm:"not null"` // First valid day, inclusive.
	ValidUntil time.Time `gorm:"not null"` // Last valid day, inclusive.

	BalanceCents int64 `gorm:"not null;default:0"` // Balance in cents, never negative.

	IsActive bool `gorm:"not null;default:true"` // Whether the pass accepts recharges and deductions.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
