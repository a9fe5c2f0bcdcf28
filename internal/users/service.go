// Package users manages account registration, credential checks and the
// student roster queries built on top of the accounts table.
package users

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
)

// Business-rule errors surfaced to callers.
var (
	// ErrUserNotFound indicates no account matches the given key.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("email already exists")
	// ErrRollNumberExists indicates the roll number is already registered.
	ErrRollNumberExists = errors.New("roll number already exists")
	// ErrInvalidCredentials indicates a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive indicates a sign-in attempt on a deactivated account.
	ErrAccountInactive = errors.New("account is deactivated")
)

// SignupParams holds the inputs for account registration.
type SignupParams struct {
	Name       string
	Email      string
	Password   string
	UserType   string // Free text, validated; empty defaults to STUDENT.
	RollNumber string
	Hostel     string
	Room       string
	Phone      string
}

// Service manages accounts over the user store.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Signup registers a new account after checking email and roll number
// uniqueness. The password is stored as a bcrypt hash.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))

	userType, errParse := models.ParseUserType(params.UserType)
	if errParse != nil {
		return nil, errParse
	}

	var existing models.User
	errCheck := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if errCheck == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		return nil, errCheck
	}

	errCheck = s.db.WithContext(ctx).Where("roll_number = ?", strings.TrimSpace(params.RollNumber)).First(&existing).Error
	if errCheck == nil {
		return nil, ErrRollNumberExists
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		return nil, errCheck
	}

	hash, errHash := security.HashPassword(params.Password)
	if errHash != nil {
		return nil, errHash
	}

	user := models.User{
		Name:       strings.TrimSpace(params.Name),
		Email:      email,
		Password:   hash,
		UserType:   userType,
		RollNumber: strings.TrimSpace(params.RollNumber),
		Hostel:     strings.TrimSpace(params.Hostel),
		Room:       strings.TrimSpace(params.Room),
		Phone:      strings.TrimSpace(params.Phone),
		IsActive:   true,
	}
	if errCreate := s.db.WithContext(ctx).Create(&user).Error; errCreate != nil {
		return nil, errCreate
	}

	log.WithFields(log.Fields{
		"user_id":   user.ID,
		"user_type": user.UserType,
	}).Info("account registered")
	return &user, nil
}

// Login verifies the email and password and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, errGet := s.GetByEmail(ctx, email)
	if errGet != nil {
		return nil, errGet
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !security.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID returns the account with the given id.
func (s *Service) GetByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errFind
	}
	return &user, nil
}

// GetByEmail returns the account registered under the email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	var user models.User
	if errFind := s.db.WithContext(ctx).Where("email = ?", normalized).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errFind
	}
	return &user, nil
}

// GetByRollNumber returns the account registered under the roll number.
func (s *Service) GetByRollNumber(ctx context.Context, rollNumber string) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Where("roll_number = ?", strings.TrimSpace(rollNumber)).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errFind
	}
	return &user, nil
}

// ListActiveStudents returns all active student accounts.
func (s *Service) ListActiveStudents(ctx context.Context) ([]models.User, error) {
	var students []models.User
	if errFind := s.db.WithContext(ctx).
		Where("user_type = ? AND is_active = ?", models.UserTypeStudent, true).
		Order("roll_number ASC").
		Find(&students).Error; errFind != nil {
		return nil, errFind
	}
	return students, nil
}

// ListStudentsByHostel returns active students living in the hostel.
func (s *Service) ListStudentsByHostel(ctx context.Context, hostel string) ([]models.User, error) {
	var students []models.User
	if errFind := s.db.WithContext(ctx).
		Where("user_type = ? AND is_active = ? AND hostel = ?", models.UserTypeStudent, true, strings.TrimSpace(hostel)).
		Order("roll_number ASC").
		Find(&students).Error; errFind != nil {
		return nil, errFind
	}
	return students, nil
}

// SearchStudentsByName returns students whose name contains the query,
// case-insensitively.
func (s *Service) SearchStudentsByName(ctx context.Context, name string) ([]models.User, error) {
	pattern := dbpkg.NormalizeLikePattern(s.db, "%"+strings.TrimSpace(name)+"%")
	var students []models.User
	if errFind := s.db.WithContext(ctx).
		Where("user_type = ?", models.UserTypeStudent).
		Where(dbpkg.CaseInsensitiveLikeExpr(s.db, "name"), pattern).
		Order("name ASC").
		Find(&students).Error; errFind != nil {
		return nil, errFind
	}
	return students, nil
}

// CountActiveStudents returns the number of active student accounts.
func (s *Service) CountActiveStudents(ctx context.Context) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_type = ? AND is_active = ?", models.UserTypeStudent, true).
		Count(&count).Error; errCount != nil {
		return 0, errCount
	}
	return count, nil
}
