package eventbus

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/metrics"
)

// Handler reacts to one domain event. Returned errors are logged by the bus.
type Handler func(ctx context.Context, event DomainEvent) error

// Emitter is implemented by the bus and consumed by event producers.
type Emitter interface {
	Emit(ctx context.Context, event DomainEvent) error
}

// Subscriber is implemented by the bus and consumed by event consumers.
type Subscriber interface {
	On(eventType enums.EventType, handler Handler)
}

type Params struct {
	Logger  *logger.Logger
	Metrics *metrics.BusMetrics
	Now     func() time.Time
}

// Bus is an in-memory publish/subscribe registry. Emit is fire-and-forget:
// every handler runs in its own goroutine and failures never reach the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[enums.EventType][]Handler
	inflight sync.WaitGroup
	logg     *logger.Logger
	metrics  *metrics.BusMetrics
	now      func() time.Time
}

func New(params Params) (*Bus, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Bus{
		handlers: make(map[enums.EventType][]Handler),
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// On registers handler for eventType. Several handlers may share a type.
func (b *Bus) On(eventType enums.EventType, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit validates event and schedules every handler registered for its type.
// The only error it returns is a validation error.
func (b *Bus) Emit(ctx context.Context, event DomainEvent) error {
	// handlers key stores and realtime channels by restaurant id
	event.RestaurantID = strings.TrimSpace(event.RestaurantID)
	if err := event.Validate(); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = b.now().UTC()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	b.metrics.IncEmitted(string(event.Type))
	if len(handlers) == 0 {
		return nil
	}

	// handlers outlive the publisher's request
	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		b.inflight.Add(1)
		go b.invoke(detached, handler, event)
	}
	return nil
}

func (b *Bus) invoke(ctx context.Context, handler Handler, event DomainEvent) {
	defer b.inflight.Done()

	ctx = b.logg.WithFields(ctx, map[string]any{
		"event_type":    string(event.Type),
		"restaurant_id": event.RestaurantID,
	})

	defer func() {
		if r := recover(); r != nil {
			b.metrics.IncHandlerFailure(string(event.Type))
			ctx = b.logg.WithField(ctx, "panic_stack", string(debug.Stack()))
			b.logg.Error(ctx, "event handler panicked", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := handler(ctx, event); err != nil {
		b.metrics.IncHandlerFailure(string(event.Type))
		b.logg.Error(ctx, "event handler failed", err)
	}
}

// Drain blocks until in-flight handlers finish or ctx is done.
func (b *Bus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "drain event handlers")
	}
}

// HandlerCount reports how many handlers are registered for eventType.
func (b *Bus) HandlerCount(eventType enums.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
