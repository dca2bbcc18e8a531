package notifications

import (
	"time"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/types"
)

// PushMessage is the realtime frame delivered to a restaurant's dashboards.
type PushMessage struct {
	RestaurantID string           `json:"restaurantId"`
	Notification PushNotification `json:"notification"`
}

type PushNotification struct {
	ID        string                     `json:"id"`
	Type      enums.EventType            `json:"type"`
	Severity  enums.NotificationSeverity `json:"severity"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Metadata  types.Metadata             `json:"metadata"`
	CreatedAt time.Time                  `json:"createdAt"`
	IsRead    bool                       `json:"isRead"`
}

func NewPushMessage(n models.Notification) PushMessage {
	metadata := n.Metadata
	if metadata == nil {
		metadata = types.Metadata{}
	}
	return PushMessage{
		RestaurantID: n.RestaurantID,
		Notification: PushNotification{
			ID:        n.ID.String(),
			Type:      n.Type,
			Severity:  n.Severity,
			Title:     n.Title,
			Message:   n.Message,
			Metadata:  metadata,
			CreatedAt: n.CreatedAt,
			IsRead:    n.IsRead,
		},
	}
}
