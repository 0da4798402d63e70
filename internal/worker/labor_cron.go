package worker

// labor_cron.go
// Background goroutine that once a day sums the previous day's revenue and
// closed-shift labor cost for every active tenant and runs the labor-cost
// threshold check.

import (
	"context"
	"time"

	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/rs/zerolog/log"
)

const laborCronInterval = 24 * time.Hour

// LaborCronConfig holds all dependencies for the labor-cost goroutine.
type LaborCronConfig struct {
	Tenants repository.TenantRepository
	Orders  repository.OrderRepository
	Shifts  repository.ShiftRepository
	Alerts  service.AlertService
}

// StartLaborCron launches a background goroutine that evaluates yesterday's
// labor ratio shortly after startup and then every 24h. It respects the
// context for graceful shutdown.
func StartLaborCron(ctx context.Context, cfg LaborCronConfig) {
	go func() {
		// First pass soon after boot so a restarted server still covers
		// yesterday, then settle into the daily cadence.
		timer := time.NewTimer(time.Minute)
		defer timer.Stop()

		log.Info().Msg("labor_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("labor_cron: shutting down")
				return
			case <-timer.C:
				RunLaborCheck(ctx, cfg, time.Now().AddDate(0, 0, -1))
				timer.Reset(laborCronInterval)
			}
		}
	}()
}

// RunLaborCheck evaluates one day's labor ratio for every active tenant.
// Exposed so an operator endpoint or test can trigger a pass directly.
func RunLaborCheck(ctx context.Context, cfg LaborCronConfig, day time.Time) {
	tenants, err := cfg.Tenants.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("labor_cron: failed to list tenants")
		return
	}

	for _, tenant := range tenants {
		scope, err := repository.NewScope(tenant.ID)
		if err != nil {
			continue
		}
		revenue, err := cfg.Orders.SumRevenueForDay(ctx, scope, day)
		if err != nil {
			log.Error().Err(err).Str("tenant_id", tenant.ID.String()).Msg("labor_cron: revenue query failed")
			continue
		}
		laborCost, err := cfg.Shifts.SumLaborCostForDay(ctx, scope, day)
		if err != nil {
			log.Error().Err(err).Str("tenant_id", tenant.ID.String()).Msg("labor_cron: labor cost query failed")
			continue
		}
		cfg.Alerts.CheckLaborCost(ctx, scope, day, revenue, laborCost)
	}
}
