package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder status values.
const (
	PurchaseStatusDraft     = "draft"
	PurchaseStatusSent      = "sent"
	PurchaseStatusReceived  = "received"
	PurchaseStatusCancelled = "cancelled"
)

// PurchaseOrder is the trigger for lot creation: marking one Received fans
// out a PurchaseOrderReceived occurrence whose consumer creates one StockLot
// per line.
type PurchaseOrder struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index"`
	Status     string     `gorm:"type:varchar(20);not null;default:'draft'"`
	ReceivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

// PurchaseOrderItem is one line: a raw material at a quantity and the unit
// price paid this shipment. Each line becomes its own cost stratum (lot);
// lines never merge with existing lots since unit cost varies shipment to
// shipment.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	RawMaterialID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(14,3);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// Supplier is minimal here: purchasing administration is a separate surface.
type Supplier struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"not null"`
	Active   bool      `gorm:"not null;default:true"`
}
