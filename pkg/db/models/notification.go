package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/types"
)

// Notification is an in-app alert scoped to a restaurant, created once per draft.
type Notification struct {
	ID           uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID string                     `gorm:"column:restaurant_id;type:text;not null" json:"restaurantId"`
	Type         enums.EventType            `gorm:"column:type;type:text;not null" json:"type"`
	Severity     enums.NotificationSeverity `gorm:"column:severity;type:text;not null" json:"severity"`
	Title        string                     `gorm:"column:title;type:text;not null" json:"title"`
	Message      string                     `gorm:"column:message;type:text;not null" json:"message"`
	Metadata     types.Metadata             `gorm:"column:metadata;type:jsonb;not null" json:"metadata"`
	IsRead       bool                       `gorm:"column:is_read;not null" json:"isRead"`
	ReadAt       *time.Time                 `gorm:"column:read_at" json:"readAt,omitempty"`
	CreatedAt    time.Time                  `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
}
