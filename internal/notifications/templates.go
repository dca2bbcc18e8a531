package notifications

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/plateops/ops-backend/pkg/enums"
	"github.com/plateops/ops-backend/pkg/eventbus"
	"github.com/plateops/ops-backend/pkg/types"
)

// Draft is a notification candidate built from an event, not yet persisted.
type Draft struct {
	Severity enums.NotificationSeverity
	Title    string
	Message  string
	Metadata types.Metadata
}

type templateFunc func(event eventbus.DomainEvent) ([]Draft, error)

var templates = map[enums.EventType]templateFunc{
	enums.EventStaffClockIn:       staffClockTemplate("clocked in", "Staff clocked in"),
	enums.EventStaffClockOut:      staffClockTemplate("clocked out", "Staff clocked out"),
	enums.EventOrderCreated:       orderCreatedTemplate,
	enums.EventOrderStatusChanged: orderStatusChangedTemplate,
	enums.EventInventoryLowStock:  lowStockTemplate,
	enums.EventMenuSyncCompleted:  menuSyncTemplate,
	enums.EventVoiceOrderReceived: voiceOrderTemplate,
	enums.EventJobFailed:          jobFailedTemplate,
	enums.EventSystemError:        systemErrorTemplate,
}

// handledEventTypes is the closed set the pipeline subscribes to, in a stable order.
var handledEventTypes = []enums.EventType{
	enums.EventStaffClockIn,
	enums.EventStaffClockOut,
	enums.EventOrderCreated,
	enums.EventOrderStatusChanged,
	enums.EventInventoryLowStock,
	enums.EventMenuSyncCompleted,
	enums.EventVoiceOrderReceived,
	enums.EventJobFailed,
	enums.EventSystemError,
}

// HandledEventTypes returns a copy of the event types that produce notifications.
func HandledEventTypes() []enums.EventType {
	return append([]enums.EventType(nil), handledEventTypes...)
}

// IsHandled reports whether eventType produces notifications.
func IsHandled(eventType enums.EventType) bool {
	_, ok := templates[eventType]
	return ok
}

// BuildDrafts maps an event to zero or more drafts. It is pure: the same event
// always yields the same drafts. Unhandled types yield none.
func BuildDrafts(event eventbus.DomainEvent) ([]Draft, error) {
	tmpl, ok := templates[event.Type]
	if !ok {
		return nil, nil
	}
	drafts, err := tmpl(event)
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		if drafts[i].Metadata == nil {
			drafts[i].Metadata = types.Metadata{}
		}
		if event.Actor != nil {
			drafts[i].Metadata["actor"] = map[string]any{
				"kind": string(event.Actor.Kind),
				"id":   event.Actor.ID,
				"name": event.Actor.Name,
			}
		}
	}
	return drafts, nil
}

func staffClockTemplate(verb, title string) templateFunc {
	return func(event eventbus.DomainEvent) ([]Draft, error) {
		var p eventbus.StaffClockPayload
		if err := event.Decode(&p); err != nil {
			return nil, err
		}
		name := firstNonEmpty(p.StaffName, p.StaffID, "A staff member")
		message := fmt.Sprintf("%s %s.", name, verb)
		if p.Role != "" {
			message = fmt.Sprintf("%s (%s) %s.", name, p.Role, verb)
		}
		return []Draft{{
			Severity: enums.SeverityInfo,
			Title:    title,
			Message:  message,
			Metadata: types.Metadata{"staffId": p.StaffID, "locationId": p.LocationID},
		}}, nil
	}
}

func orderCreatedTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.OrderCreatedPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}
	message := fmt.Sprintf("Order %s received with %d item(s), total %s.", orderLabel(p.OrderNumber, p.OrderID), p.ItemCount, p.Total.StringFixed(2))
	if p.Channel != "" {
		message = fmt.Sprintf("Order %s received via %s with %d item(s), total %s.", orderLabel(p.OrderNumber, p.OrderID), p.Channel, p.ItemCount, p.Total.StringFixed(2))
	}
	return []Draft{{
		Severity: enums.SeverityInfo,
		Title:    "New order",
		Message:  message,
		Metadata: types.Metadata{"orderId": p.OrderID, "channel": p.Channel},
	}}, nil
}

var disruptiveOrderStatuses = map[string]bool{
	"cancelled": true,
	"refunded":  true,
}

func orderStatusChangedTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.OrderStatusChangedPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}
	from := strings.ToLower(strings.TrimSpace(p.From))
	to := strings.ToLower(strings.TrimSpace(p.To))
	if to == "" || from == to {
		return nil, nil
	}

	draft := Draft{
		Severity: enums.SeverityInfo,
		Title:    "Order updated",
		Message:  fmt.Sprintf("Order %s moved from %s to %s.", orderLabel(p.OrderNumber, p.OrderID), firstNonEmpty(from, "unknown"), to),
		Metadata: types.Metadata{"orderId": p.OrderID, "from": from, "to": to},
	}
	if disruptiveOrderStatuses[to] {
		draft.Severity = enums.SeverityWarning
		draft.Title = "Order " + to
		if p.Reason != "" {
			draft.Message = fmt.Sprintf("Order %s was %s: %s.", orderLabel(p.OrderNumber, p.OrderID), to, p.Reason)
		}
	}
	return []Draft{draft}, nil
}

// lowStockTemplate emits one draft per location, in order of first appearance,
// covering only items at or below their threshold.
func lowStockTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.InventoryLowStockPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}

	type locationGroup struct {
		id, name string
		items    []eventbus.LowStockItem
		depleted bool
	}
	var order []string
	groups := map[string]*locationGroup{}
	for _, item := range p.Items {
		if item.Quantity.GreaterThan(item.Threshold) {
			continue
		}
		g, ok := groups[item.LocationID]
		if !ok {
			g = &locationGroup{id: item.LocationID, name: firstNonEmpty(item.LocationName, item.LocationID, "default location")}
			groups[item.LocationID] = g
			order = append(order, item.LocationID)
		}
		g.items = append(g.items, item)
		if !item.Quantity.IsPositive() {
			g.depleted = true
		}
	}

	drafts := make([]Draft, 0, len(order))
	for _, id := range order {
		g := groups[id]
		parts := make([]string, 0, len(g.items))
		items := make([]any, 0, len(g.items))
		for _, item := range g.items {
			parts = append(parts, fmt.Sprintf("%s (%s left, threshold %s)", item.Name, quantity(item.Quantity, item.Unit), quantity(item.Threshold, item.Unit)))
			items = append(items, map[string]any{
				"itemId":    item.ItemID,
				"name":      item.Name,
				"quantity":  item.Quantity.String(),
				"threshold": item.Threshold.String(),
			})
		}
		draft := Draft{
			Severity: enums.SeverityWarning,
			Title:    "Low stock at " + g.name,
			Message:  strings.Join(parts, ", ") + ".",
			Metadata: types.Metadata{"locationId": g.id, "items": items},
		}
		if g.depleted {
			draft.Severity = enums.SeverityCritical
			draft.Title = "Out of stock at " + g.name
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func menuSyncTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.MenuSyncCompletedPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}
	draft := Draft{
		Severity: enums.SeverityInfo,
		Title:    "Menu synced",
		Message:  fmt.Sprintf("%d menu item(s) synced to %s.", p.ItemsSynced, firstNonEmpty(p.Provider, "voice ordering")),
		Metadata: types.Metadata{"jobId": p.JobID, "itemsSynced": p.ItemsSynced, "itemsFailed": p.ItemsFailed},
	}
	if p.ItemsFailed > 0 {
		draft.Severity = enums.SeverityWarning
		draft.Title = "Menu sync finished with errors"
		draft.Message = fmt.Sprintf("%d menu item(s) synced, %d failed.", p.ItemsSynced, p.ItemsFailed)
	}
	return []Draft{draft}, nil
}

func voiceOrderTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.VoiceOrderReceivedPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}
	return []Draft{{
		Severity: enums.SeverityInfo,
		Title:    "Voice order received",
		Message:  fmt.Sprintf("Phone order with %d item(s), total %s.", p.ItemCount, p.Total.StringFixed(2)),
		Metadata: types.Metadata{"orderId": p.OrderID},
	}}, nil
}

func jobFailedTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.JobFailedPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}
	return []Draft{{
		Severity: enums.SeverityWarning,
		Title:    "Background job failed",
		Message:  fmt.Sprintf("%s job failed: %s", firstNonEmpty(p.JobType, "unknown"), firstNonEmpty(p.Error, "no error message")),
		Metadata: types.Metadata{"jobId": p.JobID, "jobType": p.JobType},
	}}, nil
}

func systemErrorTemplate(event eventbus.DomainEvent) ([]Draft, error) {
	var p eventbus.SystemErrorPayload
	if err := event.Decode(&p); err != nil {
		return nil, err
	}
	message := firstNonEmpty(p.Message, "An unexpected error occurred.")
	if p.Component != "" {
		message = p.Component + ": " + message
	}
	return []Draft{{
		Severity: enums.SeverityCritical,
		Title:    "System error",
		Message:  message,
		Metadata: types.Metadata{"component": p.Component, "code": p.Code},
	}}, nil
}

func orderLabel(number, id string) string {
	if number != "" {
		return "#" + number
	}
	return id
}

func quantity(v decimal.Decimal, unit string) string {
	if unit == "" {
		return v.String()
	}
	return v.String() + " " + unit
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
