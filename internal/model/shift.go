package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift is one staff clock-in/out span. Clock-in itself happens on the kiosk
// (separate surface); this service only reads shifts to aggregate labor cost
// for the daily labor-ratio alert.
type Shift struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ClockIn    time.Time `gorm:"not null;index"`
	ClockOut   *time.Time
	HourlyCost decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// LaborCost returns hours worked × hourly cost; zero for open shifts.
func (s *Shift) LaborCost() decimal.Decimal {
	if s.ClockOut == nil {
		return decimal.Zero
	}
	hours := decimal.NewFromFloat(s.ClockOut.Sub(s.ClockIn).Hours())
	return hours.Mul(s.HourlyCost).Round(2)
}
