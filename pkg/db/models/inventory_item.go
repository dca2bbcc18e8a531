package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stock level for one ingredient or product at one location.
type InventoryItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RestaurantID     string          `gorm:"column:restaurant_id;type:text;not null"`
	LocationID       string          `gorm:"column:location_id;type:text;not null"`
	Name             string          `gorm:"column:name;type:text;not null"`
	Unit             string          `gorm:"column:unit;type:text;not null"`
	Quantity         decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	ReorderThreshold decimal.Decimal `gorm:"column:reorder_threshold;type:numeric(12,3);not null"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}
