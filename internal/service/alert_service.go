package service

import (
	"context"
	"time"

	"blendresto/internal/events"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ── Pure evaluators ───────────────────────────────────────────────────────────
// Threshold checks over already-computed aggregates. Side-effect free so the
// labor cron, the stock-reduction consumer and tests all share one truth.

// EvaluateOrderMargin returns a LowMarginAlert when the order's margin
// percentage falls below floorPct. Zero-revenue orders are skipped — margin
// is undefined.
func EvaluateOrderMargin(tenantID, orderID uuid.UUID, orderNumber int, total, cogs, floorPct decimal.Decimal) (events.LowMarginAlert, bool) {
	if !total.IsPositive() {
		return events.LowMarginAlert{}, false
	}
	netProfit := total.Sub(cogs)
	marginPct := netProfit.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
	if marginPct.GreaterThanOrEqual(floorPct) {
		return events.LowMarginAlert{}, false
	}
	return events.LowMarginAlert{
		TenantID:         tenantID,
		OrderID:          orderID,
		OrderNumber:      orderNumber,
		MarginPercentage: marginPct,
		NetProfit:        netProfit.Round(2),
	}, true
}

// EvaluateLaborCost returns a HighLaborCostAlert when laborCost/revenue
// exceeds maxRatio. Days without revenue are skipped.
func EvaluateLaborCost(tenantID uuid.UUID, day time.Time, revenue, laborCost, maxRatio decimal.Decimal) (events.HighLaborCostAlert, bool) {
	if !revenue.IsPositive() {
		return events.HighLaborCostAlert{}, false
	}
	ratio := laborCost.Div(revenue).Round(4)
	if ratio.LessThanOrEqual(maxRatio) {
		return events.HighLaborCostAlert{}, false
	}
	return events.HighLaborCostAlert{
		TenantID:       tenantID,
		Date:           day.Format("2006-01-02"),
		TotalRevenue:   revenue,
		TotalLaborCost: laborCost,
		Ratio:          ratio,
	}, true
}

// ── Delivery ──────────────────────────────────────────────────────────────────

// RealtimePusher is the opaque push channel displays listen on.
type RealtimePusher interface {
	Push(ctx context.Context, eventName string, payload interface{}) error
}

// AlertMailEnqueuer hands alert payloads to the async mail queue.
type AlertMailEnqueuer interface {
	EnqueueAlert(ctx context.Context, payload interface{}) error
}

// AlertService evaluates thresholds and delivers the resulting alerts.
// Alerts are one-shot notifications outside the transactional pipeline:
// every delivery failure is logged and swallowed.
type AlertService interface {
	CheckOrderMargin(ctx context.Context, scope repository.Scope, orderID uuid.UUID, orderNumber int, total, cogs decimal.Decimal)
	CheckLaborCost(ctx context.Context, scope repository.Scope, day time.Time, revenue, laborCost decimal.Decimal)
}

type alertService struct {
	push       RealtimePusher
	mail       AlertMailEnqueuer
	marginPct  decimal.Decimal
	laborRatio decimal.Decimal
}

func NewAlertService(push RealtimePusher, mail AlertMailEnqueuer, marginFloorPct, laborMaxRatio float64) AlertService {
	return &alertService{
		push:       push,
		mail:       mail,
		marginPct:  decimal.NewFromFloat(marginFloorPct),
		laborRatio: decimal.NewFromFloat(laborMaxRatio),
	}
}

func (s *alertService) CheckOrderMargin(ctx context.Context, scope repository.Scope, orderID uuid.UUID, orderNumber int, total, cogs decimal.Decimal) {
	alert, fired := EvaluateOrderMargin(scope.TenantID(), orderID, orderNumber, total, cogs, s.marginPct)
	if !fired {
		return
	}
	log.Warn().
		Str("tenant_id", alert.TenantID.String()).
		Str("order_id", alert.OrderID.String()).
		Str("margin_pct", alert.MarginPercentage.String()).
		Msg("alert: low margin")
	s.deliver(ctx, "alert.low_margin", alert)
}

func (s *alertService) CheckLaborCost(ctx context.Context, scope repository.Scope, day time.Time, revenue, laborCost decimal.Decimal) {
	alert, fired := EvaluateLaborCost(scope.TenantID(), day, revenue, laborCost, s.laborRatio)
	if !fired {
		return
	}
	log.Warn().
		Str("tenant_id", alert.TenantID.String()).
		Str("date", alert.Date).
		Str("ratio", alert.Ratio.String()).
		Msg("alert: high labor cost")
	s.deliver(ctx, "alert.high_labor_cost", alert)
}

func (s *alertService) deliver(ctx context.Context, eventName string, payload interface{}) {
	if s.push != nil {
		if err := s.push.Push(ctx, eventName, payload); err != nil {
			log.Error().Err(err).Str("event", eventName).Msg("alert: realtime push failed")
		}
	}
	if s.mail != nil {
		if err := s.mail.EnqueueAlert(ctx, payload); err != nil {
			log.Error().Err(err).Str("event", eventName).Msg("alert: mail enqueue failed")
		}
	}
}
