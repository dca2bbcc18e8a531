package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plateops/ops-backend/api/middleware"
	"github.com/plateops/ops-backend/api/responses"
	"github.com/plateops/ops-backend/api/validators"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
)

type ingestEventRequest struct {
	ID         string              `json:"id" validate:"omitempty,max=128"`
	Type       string              `json:"type" validate:"required"`
	Actor      *ingestActorRequest `json:"actor"`
	Payload    json.RawMessage     `json:"payload"`
	OccurredAt *time.Time          `json:"occurredAt"`
}

type ingestActorRequest struct {
	Kind string `json:"kind" validate:"required,oneof=person assistant voice system"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ingestEventResponse struct {
	ID   string          `json:"id"`
	Type enums.EventType `json:"type"`
}

// IngestEvent accepts a domain event from a collaborator and publishes it on
// the bus. Handling is asynchronous, so the response is 202 once the event
// passes validation.
func IngestEvent(bus eventbus.Emitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bus == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event bus unavailable"))
			return
		}

		restaurantID := middleware.RestaurantIDFromContext(r.Context())
		if restaurantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant context missing"))
			return
		}

		var body ingestEventRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventType, err := enums.ParseEventType(strings.TrimSpace(body.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown event type"))
			return
		}
		if len(body.Payload) > 0 && !json.Valid(body.Payload) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payload must be valid json"))
			return
		}

		event := eventbus.DomainEvent{
			ID:           strings.TrimSpace(body.ID),
			RestaurantID: restaurantID,
			Type:         eventType,
			Payload:      body.Payload,
		}
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if body.OccurredAt != nil {
			event.OccurredAt = body.OccurredAt.UTC()
		}
		if body.Actor != nil {
			event.Actor = &eventbus.Actor{Kind: enums.ActorKind(body.Actor.Kind), ID: body.Actor.ID, Name: body.Actor.Name}
		} else if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			event.Actor = &eventbus.Actor{Kind: enums.ActorPerson, ID: userID}
		}

		if err := bus.Emit(r.Context(), event); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, ingestEventResponse{ID: event.ID, Type: event.Type})
	}
}
