package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/models"
)

// Migrate creates or updates the schema for all application tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.MessPass{},
		&models.Payment{},
		&models.MenuItem{},
		&models.DailyMenu{},
		&models.MealOrder{},
	)
}
