package eventbridge

import (
	"context"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/pubsub"
)

const consumerName = "eventbridge"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type dedupe interface {
	Seen(ctx context.Context, consumer, eventID string) (bool, error)
}

type ConsumerParams struct {
	Subscription receiver
	Guard        dedupe
	Bus          eventbus.Emitter
	Logger       *logger.Logger
}

// Consumer re-emits domain events published by other services onto the local bus.
type Consumer struct {
	subscription receiver
	guard        dedupe
	bus          eventbus.Emitter
	logg         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, fmt.Errorf("events subscription required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if params.Bus == nil {
		return nil, fmt.Errorf("event bus required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: params.Subscription,
		guard:        params.Guard,
		bus:          params.Bus,
		logg:         params.Logger,
	}, nil
}

// Run receives until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		if c.process(ctx, msg.ID, msg.Data, msg.Attributes) == outcomeNack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeNack
)

func (c *Consumer) process(ctx context.Context, messageID string, data []byte, attributes map[string]string) outcome {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": attributes[pubsub.AttrEventType],
	})

	env, err := pubsub.DecodeEnvelope(data, attributes)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return outcomeAck
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":      env.EventID,
		"restaurant_id": env.RestaurantID,
	})

	eventType, err := enums.ParseEventType(env.EventType)
	if err != nil {
		c.logg.Info(logCtx, "skipping unknown event type")
		return outcomeAck
	}

	seen, err := c.guard.Seen(ctx, consumerName, env.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return outcomeNack
	}
	if seen {
		c.logg.Info(logCtx, "event already processed")
		return outcomeAck
	}

	event := eventbus.DomainEvent{
		ID:           env.EventID,
		RestaurantID: env.RestaurantID,
		Type:         eventType,
		Payload:      env.Data,
		OccurredAt:   env.OccurredAt.UTC(),
	}
	if env.Actor != nil {
		event.Actor = &eventbus.Actor{Kind: enums.ActorKind(env.Actor.Kind), ID: env.Actor.ID, Name: env.Actor.Name}
	}

	if err := c.bus.Emit(ctx, event); err != nil {
		// a malformed event will not improve on redelivery; keep the key and drop it
		c.logg.Error(logCtx, "rejected remote event", err)
		return outcomeAck
	}
	c.logg.Info(logCtx, "remote event bridged")
	return outcomeAck
}
