package pubsub

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// EnvelopeVersion is the current wire version of Envelope.
const EnvelopeVersion = 1

// Attribute keys set on every message.
const (
	AttrEventID      = "event_id"
	AttrEventType    = "event_type"
	AttrRestaurantID = "restaurant_id"
)

// EnvelopeActor identifies who produced a remote event.
type EnvelopeActor struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Envelope is the JSON body of domain events exchanged between services.
type Envelope struct {
	Version      int             `json:"version"`
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	RestaurantID string          `json:"restaurantId"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Actor        *EnvelopeActor  `json:"actor,omitempty"`
	Data         json.RawMessage `json:"data"`
}

// DecodeEnvelope parses raw and fills event metadata missing from the body
// from the message attributes.
func DecodeEnvelope(raw []byte, attributes map[string]string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, err
	}
	if env.EventID == "" {
		env.EventID = attributes[AttrEventID]
	}
	if env.EventType == "" {
		env.EventType = attributes[AttrEventType]
	}
	if env.RestaurantID == "" {
		env.RestaurantID = attributes[AttrRestaurantID]
	}
	if strings.TrimSpace(env.EventID) == "" {
		return Envelope{}, errors.New("envelope event id is required")
	}
	return env, nil
}

// Attributes returns the routing attributes for env.
func (e Envelope) Attributes() map[string]string {
	return map[string]string{
		AttrEventID:      e.EventID,
		AttrEventType:    e.EventType,
		AttrRestaurantID: e.RestaurantID,
	}
}
