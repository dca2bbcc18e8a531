package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
)

type storeCall struct {
	restaurantID string
	eventType    enums.EventType
	draft        Draft
}

type fakeStore struct {
	mu     sync.Mutex
	calls  []storeCall
	failOn map[int]error
}

func (s *fakeStore) CreateNotification(ctx context.Context, restaurantID string, eventType enums.EventType, draft Draft) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.calls)
	s.calls = append(s.calls, storeCall{restaurantID: restaurantID, eventType: eventType, draft: draft})
	if err := s.failOn[idx]; err != nil {
		return nil, err
	}
	return &models.Notification{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		Type:         eventType,
		Severity:     draft.Severity,
		Title:        draft.Title,
		Message:      draft.Message,
		Metadata:     draft.Metadata,
	}, nil
}

type dispatchCall struct {
	restaurantID string
	message      PushMessage
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) EmitToRestaurant(ctx context.Context, restaurantID string, payload any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{restaurantID: restaurantID, message: payload.(PushMessage)})
	return d.err
}

func newPipelineFixture(t *testing.T, store Store, dispatcher *fakeDispatcher) (*eventbus.Bus, *Pipeline) {
	t.Helper()
	bus, err := eventbus.New(eventbus.Params{Logger: logger.Nop()})
	require.NoError(t, err)
	p, err := NewPipeline(PipelineParams{Bus: bus, Store: store, Dispatcher: dispatcher, Logger: logger.Nop()})
	require.NoError(t, err)
	return bus, p
}

func TestNewPipelineSubscribesHandledSet(t *testing.T) {
	bus, _ := newPipelineFixture(t, &fakeStore{}, &fakeDispatcher{})
	for _, eventType := range HandledEventTypes() {
		assert.Equal(t, 1, bus.HandlerCount(eventType), eventType)
	}
	assert.Equal(t, 0, bus.HandlerCount(enums.EventMenuItemUpdated))
}

func TestNewPipelineRequiresDependencies(t *testing.T) {
	_, err := NewPipeline(PipelineParams{})
	assert.Error(t, err)
}

func TestPipelinePersistsThenDispatchesInDraftOrder(t *testing.T) {
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{}
	bus, _ := newPipelineFixture(t, store, dispatcher)

	payload := eventbus.InventoryLowStockPayload{Items: []eventbus.LowStockItem{
		{Name: "Tomatoes", LocationID: "a", Quantity: decimal.NewFromInt(1), Threshold: decimal.NewFromInt(3)},
		{Name: "Basil", LocationID: "b", Quantity: decimal.NewFromInt(0), Threshold: decimal.NewFromInt(1)},
		{Name: "Mint", LocationID: "c", Quantity: decimal.NewFromInt(2), Threshold: decimal.NewFromInt(2)},
	}}
	event, err := eventbus.NewEvent("r1", enums.EventInventoryLowStock, payload)
	require.NoError(t, err)

	require.NoError(t, bus.Emit(context.Background(), event))
	require.NoError(t, bus.Drain(context.Background()))

	require.Len(t, store.calls, 3)
	require.Len(t, dispatcher.calls, 3)
	for i, location := range []string{"a", "b", "c"} {
		assert.Equal(t, location, store.calls[i].draft.Metadata["locationId"])
		assert.Equal(t, "r1", dispatcher.calls[i].restaurantID)
		assert.Equal(t, store.calls[i].draft.Title, dispatcher.calls[i].message.Notification.Title)
		assert.False(t, dispatcher.calls[i].message.Notification.IsRead)
	}
}

func TestPipelineIgnoresUnhandledTypes(t *testing.T) {
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{}
	bus, _ := newPipelineFixture(t, store, dispatcher)

	for _, eventType := range []enums.EventType{enums.EventMenuItemUpdated, enums.EventReservationCancelled} {
		require.NoError(t, bus.Emit(context.Background(), eventbus.DomainEvent{RestaurantID: "r1", Type: eventType}))
	}
	require.NoError(t, bus.Drain(context.Background()))

	assert.Empty(t, store.calls)
	assert.Empty(t, dispatcher.calls)
}

func TestPipelineSkipsDispatchForFailedPersistence(t *testing.T) {
	store := &fakeStore{failOn: map[int]error{1: errors.New("db unavailable")}}
	dispatcher := &fakeDispatcher{}
	_, p := newPipelineFixture(t, store, dispatcher)

	payload := eventbus.InventoryLowStockPayload{Items: []eventbus.LowStockItem{
		{Name: "A", LocationID: "a", Quantity: decimal.Zero, Threshold: decimal.NewFromInt(1)},
		{Name: "B", LocationID: "b", Quantity: decimal.Zero, Threshold: decimal.NewFromInt(1)},
		{Name: "C", LocationID: "c", Quantity: decimal.Zero, Threshold: decimal.NewFromInt(1)},
	}}
	event, err := eventbus.NewEvent("r1", enums.EventInventoryLowStock, payload)
	require.NoError(t, err)

	err = p.Handle(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db unavailable")

	require.Len(t, store.calls, 3)
	require.Len(t, dispatcher.calls, 2)
	assert.Equal(t, "Out of stock at a", dispatcher.calls[0].message.Notification.Title)
	assert.Equal(t, "Out of stock at c", dispatcher.calls[1].message.Notification.Title)
}

func TestPipelineDispatchFailureIsNotAnError(t *testing.T) {
	store := &fakeStore{}
	dispatcher := &fakeDispatcher{err: fmt.Errorf("no subscribers")}
	_, p := newPipelineFixture(t, store, dispatcher)

	event, err := eventbus.NewEvent("r1", enums.EventSystemError, eventbus.SystemErrorPayload{Message: "disk full"})
	require.NoError(t, err)

	require.NoError(t, p.Handle(context.Background(), event))
	assert.Len(t, store.calls, 1)
	assert.Len(t, dispatcher.calls, 1)
}

func TestPipelineLowStockScenarioWithRepository(t *testing.T) {
	db := newTestDB(t)
	dispatcher := &fakeDispatcher{}
	bus, _ := newPipelineFixture(t, NewRepository(db), dispatcher)

	event, err := eventbus.NewEvent("r1", enums.EventInventoryLowStock, eventbus.InventoryLowStockPayload{Items: []eventbus.LowStockItem{
		{ItemID: "i1", Name: "Tomatoes", LocationID: "main", Unit: "kg", Quantity: decimal.RequireFromString("1.25"), Threshold: decimal.NewFromInt(4)},
	}})
	require.NoError(t, err)
	require.NoError(t, bus.Emit(context.Background(), event))
	require.NoError(t, bus.Drain(context.Background()))

	var rows []models.Notification
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0].RestaurantID)
	assert.Equal(t, enums.SeverityWarning, rows[0].Severity)
	assert.Equal(t, enums.EventInventoryLowStock, rows[0].Type)
	assert.False(t, rows[0].IsRead)

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, "r1", dispatcher.calls[0].restaurantID)
	assert.Equal(t, rows[0].ID.String(), dispatcher.calls[0].message.Notification.ID)
}
