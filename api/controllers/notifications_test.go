package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateops/ops-backend/internal/notifications"
	"github.com/plateops/ops-backend/pkg/db/models"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, restaurantID string, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, restaurantID string) (int64, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{Items: []models.Notification{}}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, restaurantID string, notificationID uuid.UUID) error {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, restaurantID, notificationID)
	}
	return nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, restaurantID string) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, restaurantID)
	}
	return 0, nil
}

func TestListNotificationsPassesQuery(t *testing.T) {
	id := uuid.New()
	var got notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{
				Items:      []models.Notification{{ID: id, RestaurantID: "rest-1", Title: "Low stock"}},
				NextCursor: "abc",
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications?limit=10&cursor=xyz&unreadOnly=true", nil)
	req = withRestaurant(req, "rest-1")
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, notifications.ListParams{RestaurantID: "rest-1", Limit: 10, Cursor: "xyz", UnreadOnly: true}, got)

	var page struct {
		Items []struct {
			ID    uuid.UUID `json:"id"`
			Title string    `json:"title"`
		} `json:"items"`
		NextCursor string `json:"nextCursor"`
	}
	decodeData(t, resp.Body, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, id, page.Items[0].ID)
	assert.Equal(t, "abc", page.NextCursor)
}

func TestListNotificationsRejectsBadQuery(t *testing.T) {
	svc := &testNotificationsService{}
	for _, query := range []string{"limit=0", "limit=abc", "limit=101", "unreadOnly=maybe"} {
		req := withRestaurant(httptest.NewRequest(http.MethodGet, "/notifications?"+query, nil), "rest-1")
		resp := httptest.NewRecorder()
		ListNotifications(svc, testLogger())(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code, query)
	}
}

func TestListNotificationsRequiresRestaurantContext(t *testing.T) {
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	notificationID := uuid.New()
	called := false
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, restaurantID string, nid uuid.UUID) error {
			called = true
			assert.Equal(t, "rest-1", restaurantID)
			assert.Equal(t, notificationID, nid)
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/notifications/"+notificationID.String()+"/read", nil)
	req = withURLParams(withRestaurant(req, "rest-1"), "notificationId", notificationID.String())
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, called)
	var body map[string]bool
	decodeData(t, resp.Body, &body)
	assert.True(t, body["read"])
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(context.Context, string, uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}
	id := uuid.NewString()
	req := withURLParams(withRestaurant(httptest.NewRequest(http.MethodPost, "/", nil), "rest-1"), "notificationId", id)
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeNotFound), decodeError(t, resp.Body).Code)
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := withURLParams(withRestaurant(httptest.NewRequest(http.MethodPost, "/", nil), "rest-1"), "notificationId", "nope")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, restaurantID string) (int64, error) {
			assert.Equal(t, "rest-1", restaurantID)
			return 4, nil
		},
	}
	req := withRestaurant(httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil), "rest-1")
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]int64
	decodeData(t, resp.Body, &body)
	assert.Equal(t, int64(4), body["updated"])
}
