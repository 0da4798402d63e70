package worker

// alert_worker.go
// Renders threshold alerts into manager emails and sends them via SMTP.
// SMTP calls go through the circuit breaker; undeliverable jobs land in
// the DLQ instead of being retried forever.

import (
	"context"
	"encoding/json"
	"fmt"

	"blendresto/internal/events"
	"blendresto/internal/infra"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AlertMailerFunc abstracts infra.Mailer.SendAlert for tests.
type AlertMailerFunc func(to, subject, body string) error

// AlertWorker processes alert jobs from QueueAlerts.
type AlertWorker struct {
	tenants repository.TenantRepository
	send    AlertMailerFunc
	cb      *infra.CircuitBreaker
	rdb     *redis.Client
}

func NewAlertWorker(tenants repository.TenantRepository, mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *AlertWorker {
	return &AlertWorker{tenants: tenants, send: mailer.SendAlert, cb: cb, rdb: rdb}
}

// Process renders the alert and sends it to the tenant's configured inbox.
func (w *AlertWorker) Process(ctx context.Context, jobType string, payload json.RawMessage) {
	to, subject, body, ok := w.render(ctx, jobType, payload)
	if !ok {
		return
	}
	if to == "" {
		log.Warn().Str("job_type", jobType).Msg("alert_worker: tenant has no alert email — skipping")
		return
	}

	err := w.cb.Execute(func() error {
		return w.send(to, subject, body)
	})
	if err != nil {
		log.Error().Err(err).Str("to", to).Str("job_type", jobType).Msg("alert_worker: failed to send alert email")
		SendToDLQ(ctx, w.rdb, QueueAlerts, jobType, payload, err.Error())
		return
	}
	log.Info().Str("to", to).Str("job_type", jobType).Msg("alert_worker: alert email sent")
}

func (w *AlertWorker) render(ctx context.Context, jobType string, payload json.RawMessage) (to, subject, body string, ok bool) {
	switch jobType {
	case JobTypeLowMargin:
		var a events.LowMarginAlert
		if err := json.Unmarshal(payload, &a); err != nil {
			log.Error().Err(err).Msg("alert_worker: invalid low margin payload")
			return "", "", "", false
		}
		to = w.alertEmail(ctx, a.TenantID)
		subject = fmt.Sprintf("Low margin on order #%d", a.OrderNumber)
		body = fmt.Sprintf(
			"Order #%d closed with a margin of %s%% (net profit %s), below the configured floor.\n\nOrder ID: %s\n",
			a.OrderNumber, a.MarginPercentage.String(), a.NetProfit.String(), a.OrderID,
		)
		return to, subject, body, true

	case JobTypeHighLaborCost:
		var a events.HighLaborCostAlert
		if err := json.Unmarshal(payload, &a); err != nil {
			log.Error().Err(err).Msg("alert_worker: invalid labor cost payload")
			return "", "", "", false
		}
		to = w.alertEmail(ctx, a.TenantID)
		subject = fmt.Sprintf("High labor cost on %s", a.Date)
		body = fmt.Sprintf(
			"Labor cost for %s was %s against revenue of %s — a ratio of %s, above the configured ceiling.\n",
			a.Date, a.TotalLaborCost.String(), a.TotalRevenue.String(), a.Ratio.String(),
		)
		return to, subject, body, true

	default:
		log.Warn().Str("job_type", jobType).Msg("alert_worker: unknown job type")
		return "", "", "", false
	}
}

func (w *AlertWorker) alertEmail(ctx context.Context, tenantID uuid.UUID) string {
	tenant, err := w.tenants.FindByID(ctx, tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID.String()).Msg("alert_worker: tenant lookup failed")
		return ""
	}
	return tenant.AlertEmail
}
