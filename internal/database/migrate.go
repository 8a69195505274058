package database

import (
	"fmt"

	"gorm.io/gorm"

	"storefront_back_end/internal/models"
)

// Migrate creates or updates every table the storefront owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.WishlistItem{},
		&models.Discount{},
		&models.TaxRate{},
		&models.Warehouse{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
