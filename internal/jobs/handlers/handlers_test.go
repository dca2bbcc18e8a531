package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/plateops/ops-backend/internal/jobs"
	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/types"
	"github.com/plateops/ops-backend/pkg/voiceordering"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&models.MenuItem{}, &models.InventoryItem{}))
	return conn
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []eventbus.DomainEvent
}

func (e *recordingEmitter) Emit(_ context.Context, event eventbus.DomainEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

type fakeMenuPublisher struct {
	snapshot voiceordering.MenuSnapshot
	result   *voiceordering.PublishResult
	err      error
}

func (p *fakeMenuPublisher) PublishMenu(_ context.Context, snapshot voiceordering.MenuSnapshot) (*voiceordering.PublishResult, error) {
	p.snapshot = snapshot
	return p.result, p.err
}

type publishedMessage struct {
	data       []byte
	attributes map[string]string
}

type fakePublisher struct {
	messages []publishedMessage
	failOn   int
}

func (p *fakePublisher) Publish(_ context.Context, data []byte, attributes map[string]string) (string, error) {
	if p.failOn > 0 && len(p.messages)+1 == p.failOn {
		return "", errors.New("topic unavailable")
	}
	p.messages = append(p.messages, publishedMessage{data: data, attributes: attributes})
	return fmt.Sprintf("msg-%d", len(p.messages)), nil
}

func restaurantJob(jobType enums.JobType, channels []string, details string) models.Job {
	restaurantID := "r1"
	job := models.Job{
		ID:           uuid.New(),
		RestaurantID: &restaurantID,
		Type:         jobType,
		Status:       enums.JobStatusRunning,
		Channels:     types.StringList(channels),
	}
	if details != "" {
		job.Details = types.RawJSON(details)
	}
	return job
}

func TestRegisterWiresAllHandlers(t *testing.T) {
	registry := jobs.NewRegistry()
	require.NoError(t, Register(registry, Params{Logger: logger.Nop(), Catalog: NewCatalog(newTestDB(t))}))
	assert.Equal(t, []enums.JobType{
		enums.JobTypeInventorySync,
		enums.JobTypeMenuSync,
		enums.JobTypeOutboundMessaging,
	}, registry.Types())

	assert.Error(t, Register(registry, Params{Logger: logger.Nop()}))
	assert.Error(t, Register(nil, Params{}))
}

func TestMenuSyncPublishesAvailableItems(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create([]models.MenuItem{
		{ID: uuid.New(), RestaurantID: "r1", Name: "Margherita", Category: "pizza", Price: decimal.RequireFromString("12.50"), IsAvailable: true, UpdatedAt: now},
		{ID: uuid.New(), RestaurantID: "r1", Name: "Calzone", Category: "pizza", Price: decimal.RequireFromString("14"), IsAvailable: false, UpdatedAt: now},
		{ID: uuid.New(), RestaurantID: "r2", Name: "Burger", Category: "mains", Price: decimal.RequireFromString("11"), IsAvailable: true, UpdatedAt: now},
	}).Error)

	publisher := &fakeMenuPublisher{result: &voiceordering.PublishResult{Provider: "callbot", Accepted: 1}}
	emitter := &recordingEmitter{}
	handler := &MenuSync{
		catalog:   NewCatalog(db),
		publisher: publisher,
		events:    emitter,
		logg:      logger.Nop(),
		now:       func() time.Time { return now },
	}

	job := restaurantJob(enums.JobTypeMenuSync, nil, "")
	out, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, MenuSyncResult{Provider: "callbot", ItemsSynced: 1}, out)

	assert.Equal(t, "r1", publisher.snapshot.RestaurantID)
	assert.Equal(t, now, publisher.snapshot.GeneratedAt)
	require.Len(t, publisher.snapshot.Items, 1)
	assert.Equal(t, "Margherita", publisher.snapshot.Items[0].Name)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventMenuSyncCompleted, emitter.events[0].Type)
	var payload eventbus.MenuSyncCompletedPayload
	require.NoError(t, emitter.events[0].Decode(&payload))
	assert.Equal(t, job.ID.String(), payload.JobID)
	assert.Equal(t, 1, payload.ItemsSynced)
}

func TestMenuSyncFailures(t *testing.T) {
	db := newTestDB(t)
	emitter := &recordingEmitter{}

	unconfigured := &MenuSync{catalog: NewCatalog(db), events: emitter, logg: logger.Nop(), now: time.Now}
	_, err := unconfigured.Handle(context.Background(), restaurantJob(enums.JobTypeMenuSync, nil, ""))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	failing := &MenuSync{
		catalog:   NewCatalog(db),
		publisher: &fakeMenuPublisher{err: errors.New("provider timeout")},
		events:    emitter,
		logg:      logger.Nop(),
		now:       time.Now,
	}
	_, err = failing.Handle(context.Background(), restaurantJob(enums.JobTypeMenuSync, nil, ""))
	assert.EqualError(t, err, "provider timeout")

	_, err = failing.Handle(context.Background(), models.Job{ID: uuid.New(), Type: enums.JobTypeMenuSync})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	empty := &MenuSync{
		catalog:   NewCatalog(db),
		publisher: &fakeMenuPublisher{},
		events:    emitter,
		logg:      logger.Nop(),
		now:       time.Now,
	}
	_, err = empty.Handle(context.Background(), restaurantJob(enums.JobTypeMenuSync, nil, ""))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, emitter.events)
}

func TestInventorySyncEmitsLowStock(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create([]models.InventoryItem{
		{ID: uuid.New(), RestaurantID: "r1", LocationID: "downtown", Name: "Basil", Unit: "kg", Quantity: decimal.RequireFromString("0.5"), ReorderThreshold: decimal.RequireFromString("2")},
		{ID: uuid.New(), RestaurantID: "r1", LocationID: "downtown", Name: "Flour", Unit: "kg", Quantity: decimal.RequireFromString("40"), ReorderThreshold: decimal.RequireFromString("10")},
		{ID: uuid.New(), RestaurantID: "r1", LocationID: "harbor", Name: "Mozzarella", Unit: "kg", Quantity: decimal.Zero, ReorderThreshold: decimal.RequireFromString("5")},
		{ID: uuid.New(), RestaurantID: "r2", LocationID: "harbor", Name: "Eggs", Unit: "pcs", Quantity: decimal.Zero, ReorderThreshold: decimal.RequireFromString("12")},
	}).Error)

	emitter := &recordingEmitter{}
	handler := &InventorySync{catalog: NewCatalog(db), events: emitter, logg: logger.Nop()}

	out, err := handler.Handle(context.Background(), restaurantJob(enums.JobTypeInventorySync, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, InventorySyncResult{LowStockItems: 2, OutOfStock: 1}, out)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventInventoryLowStock, emitter.events[0].Type)
	var payload eventbus.InventoryLowStockPayload
	require.NoError(t, emitter.events[0].Decode(&payload))
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "Basil", payload.Items[0].Name)
	assert.Equal(t, "harbor", payload.Items[1].LocationID)
	assert.True(t, payload.Items[1].Quantity.IsZero())
}

func TestInventorySyncQuietWhenStocked(t *testing.T) {
	emitter := &recordingEmitter{}
	handler := &InventorySync{catalog: NewCatalog(newTestDB(t)), events: emitter, logg: logger.Nop()}

	out, err := handler.Handle(context.Background(), restaurantJob(enums.JobTypeInventorySync, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, InventorySyncResult{}, out)
	assert.Empty(t, emitter.events)
}

func TestOutboundMessagingPublishesPerChannel(t *testing.T) {
	publisher := &fakePublisher{}
	handler := &OutboundMessaging{publisher: publisher, logg: logger.Nop()}
	job := restaurantJob(enums.JobTypeOutboundMessaging, []string{"sms", "Email"},
		`{"recipient":"+15550100","body":"Your table is ready"}`)

	out, err := handler.Handle(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, OutboundResult{Published: []PublishedMessage{
		{Channel: "sms", MessageID: "msg-1"},
		{Channel: "email", MessageID: "msg-2"},
	}}, out)

	require.Len(t, publisher.messages, 2)
	var first OutboundMessage
	require.NoError(t, json.Unmarshal(publisher.messages[0].data, &first))
	assert.Equal(t, job.ID.String(), first.JobID)
	assert.Equal(t, "sms", first.Channel)
	assert.Equal(t, "Your table is ready", first.Body)
	assert.Equal(t, "email", publisher.messages[1].attributes["channel"])
	assert.Equal(t, "r1", publisher.messages[1].attributes["restaurant_id"])
}

func TestOutboundMessagingRejectsUnknownChannelBeforePublishing(t *testing.T) {
	publisher := &fakePublisher{}
	handler := &OutboundMessaging{publisher: publisher, logg: logger.Nop()}

	_, err := handler.Handle(context.Background(), restaurantJob(enums.JobTypeOutboundMessaging,
		[]string{"sms", "pager"}, `{"recipient":"+15550100","body":"hi"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid message channel "pager"`)
	assert.Empty(t, publisher.messages)
}

func TestOutboundMessagingValidatesDetails(t *testing.T) {
	publisher := &fakePublisher{}
	handler := &OutboundMessaging{publisher: publisher, logg: logger.Nop()}

	_, err := handler.Handle(context.Background(), restaurantJob(enums.JobTypeOutboundMessaging, []string{"sms"}, `{"recipient":"+15550100"}`))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = handler.Handle(context.Background(), restaurantJob(enums.JobTypeOutboundMessaging, nil, `{"recipient":"x","body":"y"}`))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	unconfigured := &OutboundMessaging{logg: logger.Nop()}
	_, err = unconfigured.Handle(context.Background(), restaurantJob(enums.JobTypeOutboundMessaging, []string{"sms"}, `{"recipient":"x","body":"y"}`))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, publisher.messages)
}

func TestOutboundMessagingPublishFailure(t *testing.T) {
	publisher := &fakePublisher{failOn: 2}
	handler := &OutboundMessaging{publisher: publisher, logg: logger.Nop()}

	_, err := handler.Handle(context.Background(), restaurantJob(enums.JobTypeOutboundMessaging,
		[]string{"sms", "voice"}, `{"recipient":"+15550100","body":"hi"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish voice message")
	assert.Len(t, publisher.messages, 1)
}
