package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/pagination"
	"github.com/plateops/ops-backend/pkg/types"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	CreateNotification(ctx context.Context, restaurantID string, eventType enums.EventType, draft Draft) (*models.Notification, error)
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, restaurantID string, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, restaurantID string, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository returns a notifications repository bound to the provided database.
// It holds no state besides the handle, so one instance serves concurrent callers.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db, now: time.Now}
}

type listNotificationsParams struct {
	RestaurantID string
	Limit        int
	Cursor       *pagination.Cursor
	UnreadOnly   bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

// CreateNotification persists draft, assigning its id and creation time.
func (r *repositoryImpl) CreateNotification(ctx context.Context, restaurantID string, eventType enums.EventType, draft Draft) (*models.Notification, error) {
	if restaurantID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if !draft.Severity.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid severity %q", draft.Severity)
	}
	metadata := draft.Metadata
	if metadata == nil {
		metadata = types.Metadata{}
	}

	notification := &models.Notification{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Type:         eventType,
		Severity:     draft.Severity,
		Title:        draft.Title,
		Message:      draft.Message,
		Metadata:     metadata,
		IsRead:       false,
		CreatedAt:    r.now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("restaurant_id = ?", params.RestaurantID)
	if params.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt.UTC(), params.Cursor.ID)
	}

	var rows []models.Notification
	err := query.Order("created_at DESC, id DESC").
		Limit(pagination.NormalizeLimit(params.Limit) + 1).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	page, next := pagination.Page(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return page, next, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, restaurantID string, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND restaurant_id = ? AND is_read = ?", notificationID, restaurantID, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": now})
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return notificationMarkResult{Updated: true, Found: true}, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND restaurant_id = ?", notificationID, restaurantID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	return notificationMarkResult{Found: count > 0}, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, restaurantID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("restaurant_id = ? AND is_read = ?", restaurantID, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
