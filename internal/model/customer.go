package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a loyalty member. Points is a running balance; the
// LoyaltyCredit rows are the per-order ledger behind it.
type Customer struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name      string          `gorm:"not null"`
	Points    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoyaltyCredit records one accrual per paid order. The unique index on
// OrderID makes the credit set-once: redelivery of the same OrderPaid
// occurrence inserts nothing and the balance is not double-credited.
type LoyaltyCredit struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Points     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time
}
