package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
)

// Actor describes who or what caused an event.
type Actor struct {
	Kind enums.ActorKind `json:"kind"`
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name,omitempty"`
}

// DomainEvent is the unit published on the bus. Payload is opaque to the bus.
type DomainEvent struct {
	ID           string          `json:"id,omitempty"`
	RestaurantID string          `json:"restaurantId"`
	Type         enums.EventType `json:"type"`
	Actor        *Actor          `json:"actor,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

func (e DomainEvent) Validate() error {
	if strings.TrimSpace(e.RestaurantID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event restaurantId is required")
	}
	if strings.TrimSpace(string(e.Type)) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event type is required")
	}
	if e.Actor != nil && !e.Actor.Kind.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid actor kind %q", e.Actor.Kind)
	}
	return nil
}

// Decode unmarshals the payload into out. An empty payload leaves out untouched.
func (e DomainEvent) Decode(out any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("decode %s payload", e.Type))
	}
	return nil
}

type Option func(*DomainEvent)

func WithActor(actor Actor) Option {
	return func(e *DomainEvent) {
		e.Actor = &actor
	}
}

func WithOccurredAt(at time.Time) Option {
	return func(e *DomainEvent) {
		e.OccurredAt = at.UTC()
	}
}

func WithID(id string) Option {
	return func(e *DomainEvent) {
		e.ID = id
	}
}

// NewEvent builds a DomainEvent, marshaling payload to JSON.
func NewEvent(restaurantID string, eventType enums.EventType, payload any, opts ...Option) (DomainEvent, error) {
	event := DomainEvent{RestaurantID: restaurantID, Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return DomainEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
		}
		event.Payload = raw
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event, event.Validate()
}
