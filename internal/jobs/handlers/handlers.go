package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/plateops/ops-backend/internal/jobs"
	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/pubsub"
)

// Params wires the built-in job handlers. MenuPublisher and Outbound may be
// nil; jobs of those types then fail with a dependency error.
type Params struct {
	Logger        *logger.Logger
	Catalog       Catalog
	Events        eventbus.Emitter
	MenuPublisher MenuPublisher
	Outbound      pubsub.MessagePublisher
	Now           func() time.Time
}

// Register adds menu_sync, inventory_sync and outbound_messaging to registry.
func Register(registry *jobs.Registry, params Params) error {
	if registry == nil {
		return fmt.Errorf("registry required")
	}
	if params.Logger == nil {
		return fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return fmt.Errorf("catalog required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	menu := &MenuSync{
		catalog:   params.Catalog,
		publisher: params.MenuPublisher,
		events:    params.Events,
		logg:      params.Logger,
		now:       now,
	}
	inventory := &InventorySync{catalog: params.Catalog, events: params.Events, logg: params.Logger}
	outbound := &OutboundMessaging{publisher: params.Outbound, logg: params.Logger}

	registry.Register(enums.JobTypeMenuSync, menu.Handle)
	registry.Register(enums.JobTypeInventorySync, inventory.Handle)
	registry.Register(enums.JobTypeOutboundMessaging, outbound.Handle)
	return nil
}

func requireRestaurant(job models.Job) (string, error) {
	if job.RestaurantID == nil || strings.TrimSpace(*job.RestaurantID) == "" {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "%s requires a restaurant", job.Type)
	}
	return *job.RestaurantID, nil
}

// emit publishes a follow-up event. Emission problems never fail the job.
func emit(ctx context.Context, events eventbus.Emitter, logg *logger.Logger, restaurantID string, eventType enums.EventType, payload any) {
	if events == nil {
		return
	}
	event, err := eventbus.NewEvent(restaurantID, eventType, payload,
		eventbus.WithActor(eventbus.Actor{Kind: enums.ActorSystem, ID: "job-runner"}))
	if err == nil {
		err = events.Emit(ctx, event)
	}
	if err != nil {
		logg.Error(logg.WithField(ctx, "event_type", eventType.String()), "emit follow-up event", err)
	}
}
