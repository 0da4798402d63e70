package repository

import (
	"context"
	"time"

	"blendresto/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShiftRepository reads staff shifts for the daily labor-cost evaluation.
type ShiftRepository interface {
	// SumLaborCostForDay totals closed-shift labor cost for one calendar day.
	SumLaborCostForDay(ctx context.Context, scope Scope, day time.Time) (decimal.Decimal, error)
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) SumLaborCostForDay(ctx context.Context, scope Scope, day time.Time) (decimal.Decimal, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND clock_out IS NOT NULL AND clock_in >= ? AND clock_in < ?",
			scope.TenantID(), start, start.AddDate(0, 0, 1)).
		Find(&shifts).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range shifts {
		total = total.Add(shifts[i].LaborCost())
	}
	return total, nil
}
