package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLot is the unit of FIFO accounting: one batch of a raw material
// received at one cost. UnitCost and InitialQuantity are fixed at receipt;
// RemainingQuantity only ever decreases. Depleted-to-zero lots are kept —
// they are the audit trail historical profitability reports recompute from.
// Invariant: 0 <= RemainingQuantity <= InitialQuantity.
type StockLot struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	RawMaterialID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_material_created,priority:1"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	InitialQuantity decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	RemainingQty    decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	// CreatedAt is the FIFO ordering key: oldest lot is consumed first.
	CreatedAt time.Time `gorm:"index:idx_lots_material_created,priority:2"`
	ExpiresAt *time.Time
}

// StockMovement is an immutable audit row, one per aggregate mutation.
// Type: "receipt" | "depletion". Movements are never modified or deleted.
type StockMovement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index"`
	RawMaterialID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"type:varchar(20);not null"`
	// Quantity is signed: positive = receipt, negative = depletion.
	Quantity    decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	StockBefore decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	// ReferenceID links the originating order or purchase order.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	Note        string
	CreatedAt   time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }
