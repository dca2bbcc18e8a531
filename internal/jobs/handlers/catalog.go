package handlers

import (
	"context"

	"gorm.io/gorm"

	"github.com/plateops/ops-backend/pkg/db/models"
)

// Catalog reads the menu and inventory rows the sync handlers work from.
type Catalog interface {
	AvailableMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
	LowStockItems(ctx context.Context, restaurantID string) ([]models.InventoryItem, error)
}

type gormCatalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) Catalog {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) AvailableMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var rows []models.MenuItem
	err := c.db.WithContext(ctx).
		Where("restaurant_id = ? AND is_available = ?", restaurantID, true).
		Order("category ASC, name ASC").
		Find(&rows).Error
	return rows, err
}

// LowStockItems returns items at or below their reorder threshold.
func (c *gormCatalog) LowStockItems(ctx context.Context, restaurantID string) ([]models.InventoryItem, error) {
	var rows []models.InventoryItem
	err := c.db.WithContext(ctx).
		Where("restaurant_id = ? AND quantity <= reorder_threshold", restaurantID).
		Order("location_id ASC, name ASC").
		Find(&rows).Error
	return rows, err
}
