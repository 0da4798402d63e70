package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawMaterial is a tracked ingredient. CurrentStock is a denormalized
// running aggregate updated on every lot mutation; the lot rows are the
// source of truth for costing.
type RawMaterial struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"index;not null"`
	Unit     string    `gorm:"not null;default:'unit'"` // unit | kg | g | l | ml
	// decimal(14,3): fractional units (grams, liters) need 3 places to avoid
	// FIFO rounding drift across many small depletions.
	CurrentStock decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	MinimumStock decimal.Decimal `gorm:"type:decimal(14,3);not null;default:0"`
	// LastUnitCost is the most recent purchase price — shown on ordering
	// screens and suggestions only, never used for costing (lots are).
	LastUnitCost decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeItem links a Product to a RawMaterial with the amount consumed per
// one unit of product sold. A product with no recipe rows is simply not
// stock-tracked.
type RecipeItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_recipe_product"`
	RawMaterialID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,3);not null"`

	RawMaterial *RawMaterial `gorm:"foreignKey:RawMaterialID"`
}
