package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is the subset of the menu catalog published to the voice-ordering provider.
type MenuItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string          `gorm:"column:restaurant_id;type:text;not null" json:"-"`
	Name         string          `gorm:"column:name;type:text;not null" json:"name"`
	Category     string          `gorm:"column:category;type:text" json:"category,omitempty"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	IsAvailable  bool            `gorm:"column:is_available;not null" json:"isAvailable"`
	UpdatedAt    time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}
