// Package order manages meal orders and their payment from mess passes.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/payment"
)

// Business-rule errors surfaced to callers.
var (
	// ErrOrderNotFound indicates no order exists with the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmptyOrder indicates an order without items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrItemUnavailable indicates an ordered item is missing or not orderable.
	ErrItemUnavailable = errors.New("menu item unavailable")
	// ErrOrderNotPayable indicates a pass payment on a non-PENDING order.
	ErrOrderNotPayable = errors.New("order is not payable")
)

// Service manages meal orders.
type Service struct {
	db       *gorm.DB
	payments *payment.Service
}

// NewService constructs a Service.
func NewService(db *gorm.DB, payments *payment.Service) *Service {
	return &Service{db: db, payments: payments}
}

// Create places an order for the given menu items. The total is the sum of
// the item prices at order time, frozen in the snapshot column.
func (s *Service) Create(ctx context.Context, userID uint64, mealType models.MealType, itemIDs []uint64, specialInstructions string) (*models.MealOrder, error) {
	if len(itemIDs) == 0 {
		return nil, ErrEmptyOrder
	}

	var items []models.MenuItem
	if errFind := s.db.WithContext(ctx).
		Where("id IN ? AND is_available = ?", itemIDs, true).
		Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	if len(items) != len(dedupe(itemIDs)) {
		return nil, ErrItemUnavailable
	}

	total := int64(0)
	snapshot := make([]models.OrderItemSnapshot, 0, len(items))
	for _, item := range items {
		total += item.PriceCents
		snapshot = append(snapshot, models.OrderItemSnapshot{
			MenuItemID: item.ID,
			Name:       item.Name,
			PriceCents: item.PriceCents,
		})
	}
	snapshotJSON, errMarshal := json.Marshal(snapshot)
	if errMarshal != nil {
		return nil, fmt.Errorf("marshal order snapshot: %w", errMarshal)
	}

	mealOrder := models.MealOrder{
		UserID:              userID,
		MenuItems:           items,
		ItemsSnapshot:       snapshotJSON,
		TotalAmountCents:    total,
		Status:              models.OrderStatusPending,
		MealType:            mealType,
		SpecialInstructions: specialInstructions,
	}
	if errCreate := s.db.WithContext(ctx).Create(&mealOrder).Error; errCreate != nil {
		return nil, errCreate
	}

	log.WithFields(log.Fields{
		"order_id":    mealOrder.ID,
		"user_id":     userID,
		"total_cents": total,
	}).Info("meal order placed")
	return &mealOrder, nil
}

// PayWithPass settles a PENDING order from the user's mess pass. The status
// re-check, the balance deduction, the MEAL_PAYMENT ledger row and the
// PENDING→CONFIRMED transition all commit in one transaction, so a failure
// anywhere leaves the order unpaid and the balance untouched. The order row
// is locked first, which serializes concurrent payment attempts.
func (s *Service) PayWithPass(ctx context.Context, orderID, passID uint64) (*models.MealOrder, error) {
	var paid *models.MealOrder
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if !dbpkg.IsSQLite(tx) {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var mealOrder models.MealOrder
		if errFind := query.First(&mealOrder, orderID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return errFind
		}
		if mealOrder.Status != models.OrderStatusPending {
			return ErrOrderNotPayable
		}

		description := fmt.Sprintf("Meal order #%d", mealOrder.ID)
		if _, errPay := s.payments.ProcessMealPaymentTx(tx, mealOrder.UserID, passID, mealOrder.TotalAmountCents, description); errPay != nil {
			return errPay
		}

		if errUpdate := tx.Model(&mealOrder).Update("status", models.OrderStatusConfirmed).Error; errUpdate != nil {
			return errUpdate
		}
		mealOrder.Status = models.OrderStatusConfirmed
		paid = &mealOrder
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return paid, nil
}

// Get returns the order with the given id.
func (s *Service) Get(ctx context.Context, orderID uint64) (*models.MealOrder, error) {
	var mealOrder models.MealOrder
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		First(&mealOrder, orderID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, errFind
	}
	return &mealOrder, nil
}

// ListByUser returns the user's orders, most recent first.
func (s *Service) ListByUser(ctx context.Context, userID uint64) ([]models.MealOrder, error) {
	var orders []models.MealOrder
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; errFind != nil {
		return nil, errFind
	}
	return orders, nil
}

// ListByStatus returns all orders with the given status.
func (s *Service) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.MealOrder, error) {
	var orders []models.MealOrder
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&orders).Error; errFind != nil {
		return nil, errFind
	}
	return orders, nil
}

// ListTodays returns today's orders for one meal slot, for the kitchen queue.
func (s *Service) ListTodays(ctx context.Context, mealType models.MealType, now time.Time) ([]models.MealOrder, error) {
	y, m, d := now.UTC().Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	var orders []models.MealOrder
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		Where("meal_type = ? AND created_at >= ? AND created_at < ?", mealType, startOfDay, endOfDay).
		Order("created_at ASC").
		Find(&orders).Error; errFind != nil {
		return nil, errFind
	}
	return orders, nil
}

// UpdateStatus overwrites the order status. ErrOrderNotFound on a missing id.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint64, status models.OrderStatus) (*models.MealOrder, error) {
	mealOrder, errGet := s.Get(ctx, orderID)
	if errGet != nil {
		return nil, errGet
	}
	if errUpdate := s.db.WithContext(ctx).Model(mealOrder).Update("status", status).Error; errUpdate != nil {
		return nil, errUpdate
	}
	mealOrder.Status = status
	return mealOrder, nil
}

// Cancel moves the order to CANCELLED.
func (s *Service) Cancel(ctx context.Context, orderID uint64) (*models.MealOrder, error) {
	return s.UpdateStatus(ctx, orderID, models.OrderStatusCancelled)
}

// CountByUserInRange returns how many orders the user placed within the
// inclusive [start, end] window.
func (s *Service) CountByUserInRange(ctx context.Context, userID uint64, start, end time.Time) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).Model(&models.MealOrder{}).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, start, end).
		Count(&count).Error; errCount != nil {
		return 0, errCount
	}
	return count, nil
}

// dedupe removes repeated ids while keeping order.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
