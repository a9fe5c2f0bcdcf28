package models

import "time"

// DailyMenu publishes the set of items served for one meal slot on one date.
type DailyMenu struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	MenuDate time.Time `gorm:"not null;index"`            // Calendar date served.
	MealType MealType  `gorm:"type:varchar(16);not null"` // Meal slot.

	MenuItems []MenuItem `gorm:"many2many:daily_menu_items"` // Items on the menu.

	IsActive bool `gorm:"not null;default:true"` // Whether the menu is published.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
