package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// OrderStatus tracks a meal order through preparation and delivery.
type OrderStatus string

// OrderStatus values.
const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a free-text order status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch OrderStatus(normalized) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(normalized), nil
	default:
		return "", fmt.Errorf("unknown order status: %s", raw)
	}
}

// MealOrder is one meal purchase by a user.
type MealOrder struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Ordering user.
	User   *User  `gorm:"foreignKey:UserID"` // Orderer record.

	MenuItems []MenuItem `gorm:"many2many:order_menu_items"` // Ordered items.

	// ItemsSnapshot freezes the names and prices at order time, so later
	// menu edits do not change what the order shows as purchased.
	ItemsSnapshot datatypes.JSON `gorm:"type:jsonb"`

	TotalAmountCents int64 `gorm:"not null"` // Order total in cents.

	Status   OrderStatus `gorm:"type:varchar(16);not null;default:'PENDING'"` // Preparation state.
	MealType MealType    `gorm:"type:varchar(16);not null"`                   // Meal slot ordered for.

	SpecialInstructions string `gorm:"type:text"` // Free-text preparation note.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// OrderItemSnapshot is one entry of MealOrder.ItemsSnapshot.
type OrderItemSnapshot struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}
