// Package menu manages the dish catalog and the published daily menus.
package menu

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/models"
)

// ErrMenuNotFound indicates no menu item or daily menu matches the given id.
var ErrMenuNotFound = errors.New("menu not found")

// Service manages menu items and daily menus.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateItem persists a new menu item.
func (s *Service) CreateItem(ctx context.Context, item *models.MenuItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// GetItem returns the menu item with the given id.
func (s *Service) GetItem(ctx context.Context, id uint64) (*models.MenuItem, error) {
	var item models.MenuItem
	if errFind := s.db.WithContext(ctx).First(&item, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, errFind
	}
	return &item, nil
}

// ListItems returns the full catalog.
func (s *Service) ListItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if errFind := s.db.WithContext(ctx).Order("name ASC").Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	return items, nil
}

// ListAvailableByMealType returns orderable items for one meal slot.
func (s *Service) ListAvailableByMealType(ctx context.Context, mealType models.MealType) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if errFind := s.db.WithContext(ctx).
		Where("meal_type = ? AND is_available = ?", mealType, true).
		Order("name ASC").
		Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	return items, nil
}

// ListAvailableByCategory returns orderable items in one food category.
func (s *Service) ListAvailableByCategory(ctx context.Context, category models.FoodCategory) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if errFind := s.db.WithContext(ctx).
		Where("category = ? AND is_available = ?", category, true).
		Order("name ASC").
		Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	return items, nil
}

// ListVegetarian returns orderable vegetarian items.
func (s *Service) ListVegetarian(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if errFind := s.db.WithContext(ctx).
		Where("is_vegetarian = ? AND is_available = ?", true, true).
		Order("name ASC").
		Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	return items, nil
}

// SearchItems returns orderable items whose name contains the query,
// case-insensitively.
func (s *Service) SearchItems(ctx context.Context, name string) ([]models.MenuItem, error) {
	pattern := dbpkg.NormalizeLikePattern(s.db, "%"+strings.TrimSpace(name)+"%")
	var items []models.MenuItem
	if errFind := s.db.WithContext(ctx).
		Where("is_available = ?", true).
		Where(dbpkg.CaseInsensitiveLikeExpr(s.db, "name"), pattern).
		Order("name ASC").
		Find(&items).Error; errFind != nil {
		return nil, errFind
	}
	return items, nil
}

// UpdateItem overwrites the menu item. ErrMenuNotFound on a missing id.
func (s *Service) UpdateItem(ctx context.Context, item *models.MenuItem) error {
	var existing models.MenuItem
	if errFind := s.db.WithContext(ctx).First(&existing, item.ID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrMenuNotFound
		}
		return errFind
	}
	return s.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes the menu item from the catalog.
func (s *Service) DeleteItem(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMenuNotFound
	}
	return nil
}

// CreateDailyMenu publishes a menu for one date and meal slot.
func (s *Service) CreateDailyMenu(ctx context.Context, dailyMenu *models.DailyMenu) error {
	return s.db.WithContext(ctx).Create(dailyMenu).Error
}

// ListByDate returns the published menus for a calendar date.
func (s *Service) ListByDate(ctx context.Context, date time.Time) ([]models.DailyMenu, error) {
	var menus []models.DailyMenu
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		Where("menu_date = ? AND is_active = ?", dateOnly(date), true).
		Find(&menus).Error; errFind != nil {
		return nil, errFind
	}
	return menus, nil
}

// GetByDateAndMealType returns the published menu for one date and meal slot.
func (s *Service) GetByDateAndMealType(ctx context.Context, date time.Time, mealType models.MealType) (*models.DailyMenu, error) {
	var dailyMenu models.DailyMenu
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		Where("menu_date = ? AND meal_type = ? AND is_active = ?", dateOnly(date), mealType, true).
		First(&dailyMenu).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, errFind
	}
	return &dailyMenu, nil
}

// ListByRange returns published menus within the inclusive [start, end] window.
func (s *Service) ListByRange(ctx context.Context, start, end time.Time) ([]models.DailyMenu, error) {
	var menus []models.DailyMenu
	if errFind := s.db.WithContext(ctx).
		Preload("MenuItems").
		Where("menu_date >= ? AND menu_date <= ? AND is_active = ?", dateOnly(start), dateOnly(end), true).
		Order("menu_date ASC").
		Find(&menus).Error; errFind != nil {
		return nil, errFind
	}
	return menus, nil
}

// UpdateDailyMenu overwrites the daily menu. ErrMenuNotFound on a missing id.
func (s *Service) UpdateDailyMenu(ctx context.Context, dailyMenu *models.DailyMenu) error {
	var existing models.DailyMenu
	if errFind := s.db.WithContext(ctx).First(&existing, dailyMenu.ID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrMenuNotFound
		}
		return errFind
	}
	return s.db.WithContext(ctx).Save(dailyMenu).Error
}

// DeleteDailyMenu removes a published menu.
func (s *Service) DeleteDailyMenu(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&models.DailyMenu{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMenuNotFound
	}
	return nil
}

// dateOnly truncates a timestamp to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
