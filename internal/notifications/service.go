package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plateops/ops-backend/pkg/db/models"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/pagination"
)

// Service is the read-acknowledgement surface used by dashboards to reconcile
// notifications they may have missed over the realtime channel.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, restaurantID string, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, restaurantID string) (int64, error)
}

type service struct {
	repo Repository
}

type ListParams struct {
	RestaurantID string
	Limit        int
	Cursor       string
	UnreadOnly   bool
}

type ListResult struct {
	Items      []models.Notification `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if strings.TrimSpace(params.RestaurantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}

	query := listNotificationsParams{
		RestaurantID: params.RestaurantID,
		Limit:        params.Limit,
		UnreadOnly:   params.UnreadOnly,
	}
	cursor, err := pagination.Parse(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}

	result := &ListResult{Items: rows}
	if next != nil {
		result.NextCursor = next.Encode()
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, restaurantID string, notificationID uuid.UUID) error {
	if strings.TrimSpace(restaurantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, restaurantID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, restaurantID string) (int64, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}

	count, err := s.repo.MarkAllRead(ctx, restaurantID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
