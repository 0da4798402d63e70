// Package events carries the domain occurrences and the in-process bus that
// fans them out. An occurrence is a fact that already happened — publishers
// commit their own state first and never depend on any consumer's outcome.
package events

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Occurrence names used for consumer registration.
const (
	OrderPaidName             = "order.paid"
	PurchaseOrderReceivedName = "purchase_order.received"
)

// Event is any occurrence the bus can dispatch.
type Event interface {
	Name() string
}

// OrderPaid is published after the paid status has durably committed.
type OrderPaid struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	OrderID       uuid.UUID       `json:"order_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
	// UserID is the acting cashier/waiter, when known.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

func (OrderPaid) Name() string { return OrderPaidName }

// PurchaseOrderReceived triggers FIFO lot creation.
type PurchaseOrderReceived struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
}

func (PurchaseOrderReceived) Name() string { return PurchaseOrderReceivedName }

// ── Alert payloads ────────────────────────────────────────────────────────────
// Alerts are one-shot notifications, not bus occurrences: they go straight to
// the realtime channel and the alert mail queue. The shapes are wire-stable.

// LowMarginAlert fires when a paid order's margin lands below the configured
// floor.
type LowMarginAlert struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      int             `json:"order_number"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	NetProfit        decimal.Decimal `json:"net_profit"`
}

// HighLaborCostAlert fires when a day's laborCost/revenue ratio exceeds the
// configured maximum.
type HighLaborCostAlert struct {
	TenantID       uuid.UUID       `json:"tenant_id"`
	Date           string          `json:"date"` // YYYY-MM-DD
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalLaborCost decimal.Decimal `json:"total_labor_cost"`
	Ratio          decimal.Decimal `json:"ratio"`
}
