package enums

import "fmt"

// EventType names a domain event published on the bus.
type EventType string

const (
	EventStaffClockIn         EventType = "staff.clock_in"
	EventStaffClockOut        EventType = "staff.clock_out"
	EventOrderCreated         EventType = "order.created"
	EventOrderStatusChanged   EventType = "order.status_changed"
	EventInventoryLowStock    EventType = "inventory.low_stock"
	EventMenuItemUpdated      EventType = "menu.item_updated"
	EventMenuSyncCompleted    EventType = "menu.sync_completed"
	EventVoiceOrderReceived   EventType = "voice.order_received"
	EventJobFailed            EventType = "job.failed"
	EventSystemError          EventType = "system.error"
	EventReservationCancelled EventType = "reservation.cancelled"
)

var validEventTypes = []EventType{
	EventStaffClockIn,
	EventStaffClockOut,
	EventOrderCreated,
	EventOrderStatusChanged,
	EventInventoryLowStock,
	EventMenuItemUpdated,
	EventMenuSyncCompleted,
	EventVoiceOrderReceived,
	EventJobFailed,
	EventSystemError,
	EventReservationCancelled,
}

func (e EventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known event type.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
