package heartbeat

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plateops/ops-backend/pkg/db/models"
)

// Repository persists the single worker liveness row.
type Repository interface {
	Beat(ctx context.Context, instance string, at time.Time) error
	Get(ctx context.Context) (*models.SystemHealth, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// Beat upserts the global row. worker_last_seen_at never moves backwards, so a
// delayed write from a slower instance cannot hide a newer heartbeat.
func (r *repositoryImpl) Beat(ctx context.Context, instance string, at time.Time) error {
	at = at.UTC()
	row := models.SystemHealth{
		ID:               models.SystemHealthGlobalID,
		WorkerLastSeenAt: at,
		WorkerInstance:   instance,
		UpdatedAt:        at,
	}
	newer := "excluded.worker_last_seen_at > system_health.worker_last_seen_at"
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"worker_last_seen_at": gorm.Expr("CASE WHEN " + newer + " THEN excluded.worker_last_seen_at ELSE system_health.worker_last_seen_at END"),
				"worker_instance":     gorm.Expr("CASE WHEN " + newer + " THEN excluded.worker_instance ELSE system_health.worker_instance END"),
				"updated_at":          gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&row).Error
}

func (r *repositoryImpl) Get(ctx context.Context) (*models.SystemHealth, error) {
	var row models.SystemHealth
	if err := r.db.WithContext(ctx).First(&row, "id = ?", models.SystemHealthGlobalID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
