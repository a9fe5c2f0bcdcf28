// Package bootstrap seeds the database once at process start. Every routine
// is guarded by an existence check so repeated startups change nothing.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/config"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
)

// defaultAdminEmail is used when the config omits bootstrap credentials.
const defaultAdminEmail = "admin@messmate.local"

// Run executes all bootstrap routines.
func Run(ctx context.Context, db *gorm.DB, cfg config.BootstrapConfig) error {
	if errAdmin := EnsureDefaultAdmin(ctx, db, cfg); errAdmin != nil {
		return errAdmin
	}
	return SeedMenuItems(ctx, db)
}

// EnsureDefaultAdmin creates the administrator account unless one already
// exists under the configured email.
func EnsureDefaultAdmin(ctx context.Context, db *gorm.DB, cfg config.BootstrapConfig) error {
	email := strings.TrimSpace(strings.ToLower(cfg.AdminEmail))
	if email == "" {
		email = defaultAdminEmail
	}

	var existing models.User
	errCheck := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if errCheck == nil {
		return nil
	}
	if !errors.Is(errCheck, gorm.ErrRecordNotFound) {
		return errCheck
	}

	password := cfg.AdminPassword
	generated := false
	if strings.TrimSpace(password) == "" {
		random, errGenerate := security.GenerateRandomString(16)
		if errGenerate != nil {
			return errGenerate
		}
		password = random
		generated = true
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}

	admin := models.User{
		Name:       "System Administrator",
		Email:      email,
		Password:   hash,
		UserType:   models.UserTypeAdmin,
		RollNumber: "ADMIN001",
		IsActive:   true,
	}
	if errCreate := db.WithContext(ctx).Create(&admin).Error; errCreate != nil {
		return errCreate
	}

	if generated {
		// Printed straight to stdout, never through the logger: the log
		// output may be copied into rotated files that outlive the secret.
		fmt.Printf("generated admin password for %s: %s\n", email, password)
	}
	log.WithField("email", email).Info("default admin account created")
	return nil
}

// SeedMenuItems loads the sample catalog when the menu_items table is empty.
func SeedMenuItems(ctx context.Context, db *gorm.DB) error {
	var count int64
	if errCount := db.WithContext(ctx).Model(&models.MenuItem{}).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return nil
	}

	items := sampleMenuItems()
	if errCreate := db.WithContext(ctx).Create(&items).Error; errCreate != nil {
		return errCreate
	}
	log.WithField("count", len(items)).Info("sample menu items seeded")
	return nil
}

// sampleMenuItems returns the starter catalog served by most campus messes.
func sampleMenuItems() []models.MenuItem {
	item := func(name, description string, priceCents int64, mealType models.MealType, category models.FoodCategory, vegetarian bool) models.MenuItem {
		return models.MenuItem{
			Name:         name,
			Description:  description,
			PriceCents:   priceCents,
			MealType:     mealType,
			Category:     category,
			IsAvailable:  true,
			IsVegetarian: vegetarian,
		}
	}
	return []models.MenuItem{
		item("Idli Sambar", "Steamed rice cakes with lentil curry", 2500, models.MealTypeBreakfast, models.FoodCategoryMainCourse, true),
		item("Dosa", "Crispy rice pancake", 3000, models.MealTypeBreakfast, models.FoodCategoryMainCourse, true),
		item("Upma", "Semolina breakfast dish", 2000, models.MealTypeBreakfast, models.FoodCategoryMainCourse, true),
		item("Poha", "Flattened rice with vegetables", 2200, models.MealTypeBreakfast, models.FoodCategoryMainCourse, true),
		item("Tea", "Hot milk tea", 1000, models.MealTypeBreakfast, models.FoodCategoryBeverage, true),
		item("Rice", "Steamed white rice", 1500, models.MealTypeLunch, models.FoodCategoryRice, true),
		item("Dal Tadka", "Tempered lentil curry", 2500, models.MealTypeLunch, models.FoodCategoryCurry, true),
		item("Vegetable Curry", "Mixed vegetable curry", 3000, models.MealTypeLunch, models.FoodCategoryCurry, true),
		item("Chicken Curry", "Spicy chicken curry", 4500, models.MealTypeLunch, models.FoodCategoryCurry, false),
		item("Roti", "Indian flatbread", 800, models.MealTypeLunch, models.FoodCategoryBread, true),
		item("Salad", "Fresh vegetable salad", 1500, models.MealTypeLunch, models.FoodCategorySalad, true),
		item("Curd Rice", "Rice with yogurt", 2000, models.MealTypeLunch, models.FoodCategoryRice, true),
		item("Samosa", "Fried pastry with filling", 1200, models.MealTypeSnacks, models.FoodCategorySnack, true),
		item("Pakora", "Vegetable fritters", 1500, models.MealTypeSnacks, models.FoodCategorySnack, true),
		item("Sandwich", "Vegetable sandwich", 2500, models.MealTypeSnacks, models.FoodCategorySnack, true),
		item("Coffee", "Hot coffee", 1200, models.MealTypeSnacks, models.FoodCategoryBeverage, true),
		item("Chapati", "Whole wheat flatbread", 800, models.MealTypeDinner, models.FoodCategoryBread, true),
		item("Paneer Curry", "Cottage cheese curry", 4000, models.MealTypeDinner, models.FoodCategoryCurry, true),
		item("Fish Curry", "Spicy fish curry", 5000, models.MealTypeDinner, models.FoodCategoryCurry, false),
		item("Jeera Rice", "Cumin flavored rice", 1800, models.MealTypeDinner, models.FoodCategoryRice, true),
		item("Ice Cream", "Vanilla ice cream", 2500, models.MealTypeDinner, models.FoodCategoryDessert, true),
	}
}
