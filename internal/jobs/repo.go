package jobs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/types"
)

// Repository persists the job queue.
type Repository interface {
	Enqueue(ctx context.Context, params EnqueueParams) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListPending(ctx context.Context, limit int) ([]models.Job, error)
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	Complete(ctx context.Context, id uuid.UUID, result types.RawJSON, now time.Time) error
	Fail(ctx context.Context, id uuid.UUID, message string, now time.Time) error
}

type EnqueueParams struct {
	Type         enums.JobType
	RestaurantID string
	Channels     []string
	Details      json.RawMessage
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Enqueue(ctx context.Context, params EnqueueParams) (*models.Job, error) {
	if strings.TrimSpace(string(params.Type)) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job type required")
	}
	if len(params.Details) > 0 && !json.Valid(params.Details) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job details must be valid json")
	}
	channels := types.StringList(params.Channels)
	if channels == nil {
		channels = types.StringList{}
	}
	job := &models.Job{
		ID:        uuid.New(),
		Type:      params.Type,
		Status:    enums.JobStatusPending,
		Channels:  channels,
		Details:   types.RawJSON(params.Details),
		CreatedAt: time.Now().UTC(),
	}
	if params.RestaurantID != "" {
		restaurantID := params.RestaurantID
		job.RestaurantID = &restaurantID
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *repositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListPending returns up to limit pending jobs, oldest first.
func (r *repositoryImpl) ListPending(ctx context.Context, limit int) ([]models.Job, error) {
	var rows []models.Job
	err := r.db.WithContext(ctx).
		Where("status = ?", string(enums.JobStatusPending)).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Claim moves a job from pending to running. The conditional update is the
// only guard against double execution: it reports true for exactly one caller.
func (r *repositoryImpl) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(enums.JobStatusPending)).
		Updates(map[string]any{
			"status":     string(enums.JobStatusRunning),
			"started_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repositoryImpl) Complete(ctx context.Context, id uuid.UUID, result types.RawJSON, now time.Time) error {
	return r.finish(ctx, id, map[string]any{
		"status":       string(enums.JobStatusCompleted),
		"result":       result,
		"completed_at": now,
	})
}

func (r *repositoryImpl) Fail(ctx context.Context, id uuid.UUID, message string, now time.Time) error {
	return r.finish(ctx, id, map[string]any{
		"status":        string(enums.JobStatusFailed),
		"error_message": message,
		"completed_at":  now,
	})
}

// finish applies a terminal transition; only running jobs may finish.
func (r *repositoryImpl) finish(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(enums.JobStatusRunning)).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "job %s is not running", id)
	}
	return nil
}
