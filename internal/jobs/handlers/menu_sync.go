package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	pkgerrors "github.com/plateops/ops-backend/pkg/errors"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
	"github.com/plateops/ops-backend/pkg/voiceordering"
)

// MenuPublisher pushes a menu snapshot to the voice-ordering provider.
type MenuPublisher interface {
	PublishMenu(ctx context.Context, snapshot voiceordering.MenuSnapshot) (*voiceordering.PublishResult, error)
}

type MenuSyncResult struct {
	Provider    string `json:"provider"`
	ItemsSynced int    `json:"itemsSynced"`
	ItemsFailed int    `json:"itemsFailed"`
}

// MenuSync publishes the available menu of the job's restaurant.
type MenuSync struct {
	catalog   Catalog
	publisher MenuPublisher
	events    eventbus.Emitter
	logg      *logger.Logger
	now       func() time.Time
}

func (h *MenuSync) Handle(ctx context.Context, job models.Job) (any, error) {
	restaurantID, err := requireRestaurant(job)
	if err != nil {
		return nil, err
	}
	if h.publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "voice ordering provider not configured")
	}

	items, err := h.catalog.AvailableMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	snapshot := voiceordering.MenuSnapshot{
		RestaurantID: restaurantID,
		GeneratedAt:  h.now().UTC(),
		Items:        make([]voiceordering.MenuEntry, 0, len(items)),
	}
	for _, item := range items {
		snapshot.Items = append(snapshot.Items, voiceordering.MenuEntry{
			ID:        item.ID.String(),
			Name:      item.Name,
			Category:  item.Category,
			Price:     item.Price,
			Available: item.IsAvailable,
		})
	}

	published, err := h.publisher.PublishMenu(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if published == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "voice ordering provider returned no publish result")
	}
	result := MenuSyncResult{
		Provider:    published.Provider,
		ItemsSynced: published.Accepted,
		ItemsFailed: published.Rejected,
	}

	emit(ctx, h.events, h.logg, restaurantID, enums.EventMenuSyncCompleted, eventbus.MenuSyncCompletedPayload{
		JobID:       job.ID.String(),
		Provider:    result.Provider,
		ItemsSynced: result.ItemsSynced,
		ItemsFailed: result.ItemsFailed,
	})
	return result, nil
}
