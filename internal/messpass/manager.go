// Package messpass owns the mess pass lifecycle: the one-active-pass-per-user
// rule and all balance arithmetic.
package messpass

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
)

// Business-rule errors surfaced to callers.
var (
	// ErrPassNotFound indicates no pass exists with the given id or key.
	ErrPassNotFound = errors.New("mess pass not found")
	// ErrActivePassExists indicates the user already holds an active pass.
	ErrActivePassExists = errors.New("user already has an active mess pass")
	// ErrPassInactive indicates a balance operation on a deactivated pass.
	ErrPassInactive = errors.New("mess pass is deactivated")
	// ErrInvalidAmount indicates a non-positive recharge or deduct amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance indicates a deduct larger than the balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// passNumberAttempts bounds retries when a generated pass number collides
// with the unique index.
const passNumberAttempts = 3

// Manager enforces mess pass invariants over the pass store.
type Manager struct {
	db *gorm.DB
}

// NewManager constructs a Manager.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Create issues a new pass for the user. It fails with ErrActivePassExists
// while the user still holds an active pass. The pass starts with a zero
// balance and a freshly generated pass number.
func (m *Manager) Create(ctx context.Context, userID uint64, passType models.PassType, validFrom, validUntil time.Time) (*models.MessPass, error) {
	var created *models.MessPass
	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.MessPass
		errFind := tx.Where("user_id = ? AND is_active = ?", userID, true).First(&existing).Error
		if errFind == nil {
			return ErrActivePassExists
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return errFind
		}

		for attempt := 0; attempt < passNumberAttempts; attempt++ {
			number, errGenerate := security.GeneratePassNumber()
			if errGenerate != nil {
				return errGenerate
			}

			var duplicate models.MessPass
			errCheck := tx.Where("pass_number = ?", number).First(&duplicate).Error
			if errCheck == nil {
				log.WithField("pass_number", number).Warn("pass number collision, regenerating")
				continue
			}
			if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
				return errCheck
			}

			pass := models.MessPass{
				UserID:       userID,
				PassNumber:   number,
				PassType:     passType,
				ValidFrom:    validFrom,
				ValidUntil:   validUntil,
				BalanceCents: 0,
				IsActive:     true,
			}
			if errCreate := tx.Create(&pass).Error; errCreate != nil {
				return errCreate
			}
			created = &pass
			return nil
		}
		return errors.New("exhausted pass number generation attempts")
	})
	if errTx != nil {
		return nil, errTx
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"pass_number": created.PassNumber,
		"pass_type":   created.PassType,
	}).Info("mess pass created")
	return created, nil
}

// GetByUser returns the user's pass, active or not. When an old deactivated
// pass coexists with its replacement, the most recently issued one wins.
func (m *Manager) GetByUser(ctx context.Context, userID uint64) (*models.MessPass, error) {
	var pass models.MessPass
	if errFind := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&pass).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPassNotFound
		}
		return nil, errFind
	}
	return &pass, nil
}

// GetByNumber returns the pass with the given pass number.
func (m *Manager) GetByNumber(ctx context.Context, passNumber string) (*models.MessPass, error) {
	var pass models.MessPass
	if errFind := m.db.WithContext(ctx).Where("pass_number = ?", passNumber).First(&pass).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPassNotFound
		}
		return nil, errFind
	}
	return &pass, nil
}

// Recharge adds amountCents to the pass balance inside its own transaction.
func (m *Manager) Recharge(ctx context.Context, passID uint64, amountCents int64) (*models.MessPass, error) {
	var updated *models.MessPass
	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pass, errRecharge := m.RechargeTx(tx, passID, amountCents)
		if errRecharge != nil {
			return errRecharge
		}
		updated = pass
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return updated, nil
}

// RechargeTx adds amountCents to the pass balance within the caller's
// transaction, locking the pass row. The payment orchestrator uses this to
// couple the ledger write and the balance change under one transaction.
func (m *Manager) RechargeTx(tx *gorm.DB, passID uint64, amountCents int64) (*models.MessPass, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	pass, errLock := lockPass(tx, passID)
	if errLock != nil {
		return nil, errLock
	}
	if !pass.IsActive {
		return nil, ErrPassInactive
	}

	newBalance := pass.BalanceCents + amountCents
	if errUpdate := tx.Model(pass).Update("balance_cents", newBalance).Error; errUpdate != nil {
		return nil, errUpdate
	}
	pass.BalanceCents = newBalance

	log.WithFields(log.Fields{
		"pass_id":       passID,
		"amount_cents":  amountCents,
		"balance_cents": newBalance,
	}).Info("mess pass recharged")
	return pass, nil
}

// Deduct subtracts amountCents from the pass balance inside its own
// transaction. The balance never goes below zero; an overdraft attempt fails
// with ErrInsufficientBalance and leaves the balance unchanged.
func (m *Manager) Deduct(ctx context.Context, passID uint64, amountCents int64) (*models.MessPass, error) {
	var updated *models.MessPass
	errTx := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pass, errDeduct := m.DeductTx(tx, passID, amountCents)
		if errDeduct != nil {
			return errDeduct
		}
		updated = pass
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return updated, nil
}

// DeductTx subtracts amountCents within the caller's transaction, locking the
// pass row.
func (m *Manager) DeductTx(tx *gorm.DB, passID uint64, amountCents int64) (*models.MessPass, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	pass, errLock := lockPass(tx, passID)
	if errLock != nil {
		return nil, errLock
	}
	if !pass.IsActive {
		return nil, ErrPassInactive
	}
	if pass.BalanceCents < amountCents {
		return nil, ErrInsufficientBalance
	}

	newBalance := pass.BalanceCents - amountCents
	if errUpdate := tx.Model(pass).Update("balance_cents", newBalance).Error; errUpdate != nil {
		return nil, errUpdate
	}
	pass.BalanceCents = newBalance

	log.WithFields(log.Fields{
		"pass_id":       passID,
		"amount_cents":  amountCents,
		"balance_cents": newBalance,
	}).Info("mess pass balance deducted")
	return pass, nil
}

// Deactivate marks the pass inactive. A missing id fails with ErrPassNotFound.
func (m *Manager) Deactivate(ctx context.Context, passID uint64) error {
	result := m.db.WithContext(ctx).Model(&models.MessPass{}).
		Where("id = ?", passID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPassNotFound
	}
	log.WithField("pass_id", passID).Info("mess pass deactivated")
	return nil
}

// ListExpired returns active passes whose last valid day is strictly before
// asOf. A pass valid through asOf itself is not expired.
func (m *Manager) ListExpired(ctx context.Context, asOf time.Time) ([]models.MessPass, error) {
	var passes []models.MessPass
	if errFind := m.db.WithContext(ctx).
		Where("valid_until < ? AND is_active = ?", asOf, true).
		Order("valid_until ASC").
		Find(&passes).Error; errFind != nil {
		return nil, errFind
	}
	return passes, nil
}

// lockPass loads the pass row under a FOR UPDATE lock so concurrent balance
// writers serialize instead of overwriting each other. SQLite serializes
// writers at the database level and rejects the clause, so it is skipped there.
func lockPass(tx *gorm.DB, passID uint64) (*models.MessPass, error) {
	query := tx
	if !dbpkg.IsSQLite(tx) {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var pass models.MessPass
	if errFind := query.First(&pass, passID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPassNotFound
		}
		return nil, errFind
	}
	return &pass, nil
}
