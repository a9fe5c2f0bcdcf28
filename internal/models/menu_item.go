package models

import (
	"fmt"
	"strings"
	"time"
)

// MealType names the meal slot an item or menu belongs to.
type MealType string

// MealType values.
const (
	MealTypeBreakfast MealType = "BREAKFAST"
	MealTypeLunch     MealType = "LUNCH"
	MealTypeSnacks    MealType = "SNACKS"
	MealTypeDinner    MealType = "DINNER"
)

// ParseMealType validates a free-text meal type.
func ParseMealType(raw string) (MealType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch MealType(normalized) {
	case MealTypeBreakfast, MealTypeLunch, MealTypeSnacks, MealTypeDinner:
		return MealType(normalized), nil
	default:
		return "", fmt.Errorf("unknown meal type: %s", raw)
	}
}

// FoodCategory groups menu items for browsing.
type FoodCategory string

// FoodCategory values.
const (
	FoodCategoryMainCourse FoodCategory = "MAIN_COURSE"
	FoodCategoryRice       FoodCategory = "RICE"
	FoodCategoryCurry      FoodCategory = "CURRY"
	FoodCategoryBread      FoodCategory = "BREAD"
	FoodCategorySalad      FoodCategory = "SALAD"
	FoodCategoryDessert    FoodCategory = "DESSERT"
	FoodCategoryBeverage   FoodCategory = "BEVERAGE"
	FoodCategorySnack      FoodCategory = "SNACK"
)

// ParseFoodCategory validates a free-text food category.
func ParseFoodCategory(raw string) (FoodCategory, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	switch FoodCategory(normalized) {
	case FoodCategoryMainCourse, FoodCategoryRice, FoodCategoryCurry, FoodCategoryBread,
		FoodCategorySalad, FoodCategoryDessert, FoodCategoryBeverage, FoodCategorySnack:
		return FoodCategory(normalized), nil
	default:
		return "", fmt.Errorf("unknown food category: %s", raw)
	}
}

// MenuItem is one dish offered by the mess.
type MenuItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:text;not null"` // Dish name.
	Description string `gorm:"type:text"`          // Dish description.

	PriceCents int64 `gorm:"not null"` // Price in cents.

	MealType MealType     `gorm:"type:varchar(16);not null"` // Meal slot.
	Category FoodCategory `gorm:"type:varchar(16);not null"` // Browsing category.

	IsAvailable  bool `gorm:"not null;default:true"` // Whether the item can be ordered.
	IsVegetarian bool `gorm:"not null;default:true"` // Dietary flag.

	ImageURL string `gorm:"type:text"` // Optional image link.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
