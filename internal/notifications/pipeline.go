package notifications

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/plateops/ops-backend/internal/realtime"
	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
)

// Store persists one draft and returns the stored notification.
type Store interface {
	CreateNotification(ctx context.Context, restaurantID string, eventType enums.EventType, draft Draft) (*models.Notification, error)
}

type PipelineParams struct {
	Bus        eventbus.Subscriber
	Store      Store
	Dispatcher realtime.Dispatcher
	Logger     *logger.Logger
	Metrics    *metrics.NotificationMetrics
}

// Pipeline turns handled domain events into persisted notifications and pushes them.
type Pipeline struct {
	store      Store
	dispatcher realtime.Dispatcher
	logg       *logger.Logger
	metrics    *metrics.NotificationMetrics
}

// NewPipeline subscribes to every handled event type on the bus.
func NewPipeline(params PipelineParams) (*Pipeline, error) {
	if params.Bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("notification store required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("realtime dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	p := &Pipeline{
		store:      params.Store,
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
		metrics:    params.Metrics,
	}
	for _, eventType := range handledEventTypes {
		params.Bus.On(eventType, p.Handle)
	}
	return p, nil
}

// Handle builds drafts for event, then persists and pushes each in order.
// A draft whose persistence fails is not pushed; later drafts still run.
// Push failures are logged only.
func (p *Pipeline) Handle(ctx context.Context, event eventbus.DomainEvent) error {
	drafts, err := BuildDrafts(event)
	if err != nil {
		return fmt.Errorf("build %s drafts: %w", event.Type, err)
	}

	var errs error
	for i, draft := range drafts {
		notification, err := p.store.CreateNotification(ctx, event.RestaurantID, event.Type, draft)
		if err != nil {
			p.metrics.IncPersistFailure(string(event.Type))
			errs = multierr.Append(errs, fmt.Errorf("persist draft %d of %s: %w", i, event.Type, err))
			continue
		}
		p.metrics.IncCreated(string(notification.Severity))

		if err := p.dispatcher.EmitToRestaurant(ctx, event.RestaurantID, NewPushMessage(*notification)); err != nil {
			p.metrics.IncDispatchFailure(string(event.Type))
			p.logg.Warn(p.logg.WithFields(ctx, map[string]any{
				"notification_id": notification.ID.String(),
				"error":           err.Error(),
			}), "realtime push failed")
		}
	}
	return errs
}
