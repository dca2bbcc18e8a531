package models

import "time"

// SystemHealthGlobalID keys the single liveness row per deployment.
const SystemHealthGlobalID = "global"

// SystemHealth records the worker's last heartbeat.
type SystemHealth struct {
	ID               string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	WorkerLastSeenAt time.Time `gorm:"column:worker_last_seen_at;not null" json:"workerLastSeenAt"`
	WorkerInstance   string    `gorm:"column:worker_instance;type:text" json:"workerInstance,omitempty"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updatedAt"`
}

func (SystemHealth) TableName() string {
	return "system_health"
}
