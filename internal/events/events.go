package events

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventPaymentConfirmed   = "PaymentConfirmed"
	EventPurchaseRecorded   = "PurchaseRecorded"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderLine struct {
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	UserDNI    string      `json:"user_dni"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	UserDNI string `json:"user_dni"`
	From    string `json:"from"`
	To      string `json:"to"`
	Reason  string `json:"reason,omitempty"` // cancel | dashboard | payment
}

// LineAdjustment reports one order line touched by stock reconciliation.
type LineAdjustment struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Fulfilled int    `json:"fulfilled"`
	Action    string `json:"action"` // DECREMENTED | CLAMPED | DROPPED
}

type PaymentConfirmedPayload struct {
	OrderID     string           `json:"order_id"`
	UserDNI     string           `json:"user_dni"`
	AmountCents int64            `json:"amount_cents"`
	Method      string           `json:"method"`
	Status      string           `json:"status"`
	Applied     bool             `json:"applied"`
	Lines       []LineAdjustment `json:"lines,omitempty"`
}

type PurchaseRecordedPayload struct {
	PurchaseID   int64  `json:"purchase_id"`
	PurchasedBy  string `json:"purchased_by"`
	ItemCount    int    `json:"item_count"`
	TotalCost    string `json:"total_cost"`
	MissingItems int    `json:"missing_items"`
}
