package eventbus

import (
	"time"

	"github.com/shopspring/decimal"
)

type StaffClockPayload struct {
	StaffID    string    `json:"staffId"`
	StaffName  string    `json:"staffName"`
	Role       string    `json:"role,omitempty"`
	LocationID string    `json:"locationId,omitempty"`
	At         time.Time `json:"at"`
}

type OrderCreatedPayload struct {
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	ItemCount   int             `json:"itemCount"`
	Total       decimal.Decimal `json:"total"`
}

type OrderStatusChangedPayload struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber,omitempty"`
	From        string `json:"from"`
	To          string `json:"to"`
	Reason      string `json:"reason,omitempty"`
}

type LowStockItem struct {
	ItemID       string          `json:"itemId"`
	Name         string          `json:"name"`
	LocationID   string          `json:"locationId"`
	LocationName string          `json:"locationName,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Threshold    decimal.Decimal `json:"threshold"`
}

type InventoryLowStockPayload struct {
	Items []LowStockItem `json:"items"`
}

type MenuSyncCompletedPayload struct {
	JobID       string `json:"jobId,omitempty"`
	Provider    string `json:"provider,omitempty"`
	ItemsSynced int    `json:"itemsSynced"`
	ItemsFailed int    `json:"itemsFailed"`
}

type VoiceOrderReceivedPayload struct {
	OrderID     string          `json:"orderId"`
	CallerPhone string          `json:"callerPhone,omitempty"`
	ItemCount   int             `json:"itemCount"`
	Total       decimal.Decimal `json:"total"`
}

type JobFailedPayload struct {
	JobID   string `json:"jobId"`
	JobType string `json:"jobType"`
	Error   string `json:"error"`
}

type SystemErrorPayload struct {
	Component string `json:"component"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
}
