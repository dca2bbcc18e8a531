package realtime

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/redis"
)

// Publisher is the redis surface used by RedisDispatcher.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// RedisDispatcher fans pushes out through redis so a process without sockets
// (the worker) reaches dashboards connected to any API instance.
type RedisDispatcher struct {
	pub Publisher
}

func NewRedisDispatcher(pub Publisher) (*RedisDispatcher, error) {
	if pub == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	return &RedisDispatcher{pub: pub}, nil
}

func (d *RedisDispatcher) EmitToRestaurant(ctx context.Context, restaurantID string, payload any) error {
	raw, err := encode(payload)
	if err != nil {
		return err
	}
	if _, err := d.pub.Publish(ctx, redis.RestaurantChannel(restaurantID), raw); err != nil {
		return fmt.Errorf("publish realtime message: %w", err)
	}
	return nil
}

// PatternSubscriber opens redis pattern subscriptions.
type PatternSubscriber interface {
	PSubscribe(ctx context.Context, patterns ...string) (*goredis.PubSub, error)
}

// Relay forwards redis realtime channels into the local Hub.
type Relay struct {
	sub  PatternSubscriber
	hub  *Hub
	logg *logger.Logger
}

func NewRelay(sub PatternSubscriber, hub *Hub, logg *logger.Logger) (*Relay, error) {
	if sub == nil {
		return nil, fmt.Errorf("redis subscriber required")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Relay{sub: sub, hub: hub, logg: logg}, nil
}

// Run blocks until ctx is cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	ps, err := r.sub.PSubscribe(ctx, redis.RestaurantChannelPattern())
	if err != nil {
		return err
	}
	defer ps.Close()

	r.logg.Info(ctx, "realtime relay subscribed")
	messages := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("realtime subscription closed")
			}
			r.forward(ctx, msg)
		}
	}
}

func (r *Relay) forward(ctx context.Context, msg *goredis.Message) int {
	restaurantID, ok := redis.RestaurantFromChannel(msg.Channel)
	if !ok {
		r.logg.Warn(r.logg.WithField(ctx, "channel", msg.Channel), "ignoring message on unexpected realtime channel")
		return 0
	}
	return r.hub.Broadcast(ctx, restaurantID, []byte(msg.Payload))
}
