package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/types"
)

// Job is a persisted unit of deferred work polled by the worker.
type Job struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RestaurantID *string          `gorm:"column:restaurant_id;type:text" json:"restaurantId,omitempty"`
	Type         enums.JobType    `gorm:"column:type;type:text;not null" json:"type"`
	Status       enums.JobStatus  `gorm:"column:status;type:text;not null" json:"status"`
	Channels     types.StringList `gorm:"column:channels;type:jsonb;not null" json:"channels"`
	Details      types.RawJSON    `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	Result       types.RawJSON    `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	ErrorMessage *string          `gorm:"column:error_message;type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	StartedAt    *time.Time       `gorm:"column:started_at" json:"startedAt,omitempty"`
	CompletedAt  *time.Time       `gorm:"column:completed_at" json:"completedAt,omitempty"`
}
