package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/pubsub"
)

// OutboundDetails is the job details document for outbound_messaging.
type OutboundDetails struct {
	Recipient string         `json:"recipient"`
	Subject   string         `json:"subject,omitempty"`
	Body      string         `json:"body"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OutboundMessage is published once per channel for the comms service.
type OutboundMessage struct {
	JobID        string         `json:"jobId"`
	RestaurantID string         `json:"restaurantId,omitempty"`
	Channel      string         `json:"channel"`
	Recipient    string         `json:"recipient"`
	Subject      string         `json:"subject,omitempty"`
	Body         string         `json:"body"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type PublishedMessage struct {
	Channel   string `json:"channel"`
	MessageID string `json:"messageId"`
}

type OutboundResult struct {
	Published []PublishedMessage `json:"published"`
}

// OutboundMessaging fans a message out to every requested channel.
type OutboundMessaging struct {
	publisher pubsub.MessagePublisher
	logg      *logger.Logger
}

func (h *OutboundMessaging) Handle(ctx context.Context, job models.Job) (any, error) {
	if h.publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbound publisher not configured")
	}
	if len(job.Channels) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbound_messaging requires at least one channel")
	}
	channels := make([]enums.MessageChannel, 0, len(job.Channels))
	for _, raw := range job.Channels {
		channel, err := enums.ParseMessageChannel(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "outbound_messaging")
		}
		channels = append(channels, channel)
	}

	var details OutboundDetails
	if len(job.Details) > 0 {
		if err := json.Unmarshal(job.Details, &details); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode outbound details")
		}
	}
	if strings.TrimSpace(details.Recipient) == "" || strings.TrimSpace(details.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbound details require recipient and body")
	}

	restaurantID := ""
	if job.RestaurantID != nil {
		restaurantID = *job.RestaurantID
	}
	result := OutboundResult{Published: make([]PublishedMessage, 0, len(channels))}
	for _, channel := range channels {
		msg := OutboundMessage{
			JobID:        job.ID.String(),
			RestaurantID: restaurantID,
			Channel:      string(channel),
			Recipient:    details.Recipient,
			Subject:      details.Subject,
			Body:         details.Body,
			Metadata:     details.Metadata,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode %s message: %w", channel, err)
		}
		id, err := h.publisher.Publish(ctx, data, map[string]string{
			"job_id":                msg.JobID,
			"channel":               msg.Channel,
			pubsub.AttrRestaurantID: restaurantID,
		})
		if err != nil {
			return nil, fmt.Errorf("publish %s message: %w", channel, err)
		}
		result.Published = append(result.Published, PublishedMessage{Channel: msg.Channel, MessageID: id})
	}
	h.logg.Info(h.logg.WithField(ctx, "channels", len(result.Published)), "outbound messages published")
	return result, nil
}
