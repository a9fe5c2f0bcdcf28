package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidUserType indicates an unrecognized user type value.
var ErrInvalidUserType = errors.New("invalid user type")

// UserType classifies an account's role.
type UserType string

// UserType values.
const (
	// UserTypeStudent is the base role assigned when signup omits a type.
	UserTypeStudent UserType = "STUDENT"
	// UserTypeStaff marks mess staff accounts.
	UserTypeStaff UserType = "STAFF"
	// UserTypeAdmin marks administrator accounts.
	UserTypeAdmin UserType = "ADMIN"
)

// ParseUserType validates a free-text user type. An empty input falls back to
// the student role; any other unrecognized value is rejected.
func ParseUserType(raw string) (UserType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return UserTypeStudent, nil
	}
	switch UserType(normalized) {
	case UserTypeStudent, UserTypeStaff, UserTypeAdmin:
		return UserType(normalized), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidUserType, raw)
	}
}

// User represents a registered account, student or otherwise.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string   `gorm:"type:text;not null"`             // Display name.
	Email    string   `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string   `gorm:"type:text;not null"`             // Hashed password.
	UserType UserType `gorm:"type:varchar(16);not null"`      // Account role.

	RollNumber string `gorm:"type:text;not null;uniqueIndex"` // Campus roll number.
	Hostel     string `gorm:"type:text"`                      // Hostel name.
	Room       string `gorm:"type:text"`                      // Room identifier.
	Phone      string `gorm:"type:text"`                      // Contact number.

	IsActive bool `gorm:"not null;default:true"` // Whether the account can sign in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
