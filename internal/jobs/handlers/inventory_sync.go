package handlers

import (
	"context"
	"fmt"

	"github.com/plateops/ops-backend/pkg/db/models"
	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/logger"
)

type InventorySyncResult struct {
	LowStockItems int `json:"lowStockItems"`
	OutOfStock    int `json:"outOfStock"`
}

// InventorySync raises inventory.low_stock for items at or below threshold.
type InventorySync struct {
	catalog Catalog
	events  eventbus.Emitter
	logg    *logger.Logger
}

func (h *InventorySync) Handle(ctx context.Context, job models.Job) (any, error) {
	restaurantID, err := requireRestaurant(job)
	if err != nil {
		return nil, err
	}
	items, err := h.catalog.LowStockItems(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	result := InventorySyncResult{LowStockItems: len(items)}
	if len(items) == 0 {
		return result, nil
	}

	payload := eventbus.InventoryLowStockPayload{Items: make([]eventbus.LowStockItem, 0, len(items))}
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			result.OutOfStock++
		}
		payload.Items = append(payload.Items, eventbus.LowStockItem{
			ItemID:     item.ID.String(),
			Name:       item.Name,
			LocationID: item.LocationID,
			Unit:       item.Unit,
			Quantity:   item.Quantity,
			Threshold:  item.ReorderThreshold,
		})
	}
	emit(ctx, h.events, h.logg, restaurantID, enums.EventInventoryLowStock, payload)
	return result, nil
}
