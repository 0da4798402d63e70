package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status values. Transitions are one-way and owned by the order
// service; nothing else mutates Status.
const (
	OrderStatusNew       = "new"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusPaid      = "paid"      // terminal
	OrderStatusCancelled = "cancelled" // terminal
)

// Order is the persisted order snapshot. Orders are never hard-deleted —
// cancellation is a terminal status, and paid orders are the revenue record
// that profitability reports recompute from.
type Order struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_orders_tenant_number,priority:1"`
	// Number is the human-facing order number, unique per tenant.
	Number  int        `gorm:"not null;uniqueIndex:idx_orders_tenant_number,priority:2"`
	TableID *uuid.UUID `gorm:"type:uuid"`
	// TableName is denormalized at order time so kitchen displays keep
	// working even if the table record is renamed later.
	TableName     string
	WaiterID      *uuid.UUID      `gorm:"type:uuid"`
	CustomerID    *uuid.UUID      `gorm:"type:uuid;index"` // set when the guest identified for loyalty
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod *string         `gorm:"type:varchar(20)"` // set on checkout
	Status        string          `gorm:"type:varchar(20);not null;default:'new'"`
	// PaidAt is set once at checkout and is the aggregation key for daily
	// revenue. UpdatedAt moves on any row touch and must not be used for it.
	PaidAt    *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// IsTerminal reports whether no further transitions are allowed.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusCancelled
}

// OrderItem snapshots product name and unit price at order time, decoupled
// from the live Product record: historical orders stay immutable even when
// products are repriced or renamed.
type OrderItem struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// ProductID is kept for recipe/costing lookups.
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	CreatedAt   time.Time

	Modifiers []OrderItemModifier `gorm:"foreignKey:OrderItemID"`
}

// LineTotal is unitPrice × quantity + modifier snapshots.
func (i *OrderItem) LineTotal() decimal.Decimal {
	total := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	for _, m := range i.Modifiers {
		total = total.Add(m.Price.Mul(decimal.NewFromInt(int64(i.Quantity))))
	}
	return total
}

// OrderItemModifier is a name + price snapshot of an option applied to one
// order item ("extra cheese", "no ice").
type OrderItemModifier struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
