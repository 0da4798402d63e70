package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Evaluators ───────────────────────────────────────────────────────────────

func TestEvaluateOrderMargin(t *testing.T) {
	tenantID, orderID := uuid.New(), uuid.New()
	floor := dec("20")

	t.Run("below floor fires", func(t *testing.T) {
		// total 100, cogs 85 → margin 15% < 20%
		alert, fired := service.EvaluateOrderMargin(tenantID, orderID, 7, dec("100"), dec("85"), floor)
		require.True(t, fired)
		assert.True(t, alert.MarginPercentage.Equal(dec("15")))
		assert.True(t, alert.NetProfit.Equal(dec("15.00")))
		assert.Equal(t, 7, alert.OrderNumber)
	})

	t.Run("at floor stays silent", func(t *testing.T) {
		_, fired := service.EvaluateOrderMargin(tenantID, orderID, 7, dec("100"), dec("80"), floor)
		assert.False(t, fired)
	})

	t.Run("healthy margin stays silent", func(t *testing.T) {
		_, fired := service.EvaluateOrderMargin(tenantID, orderID, 7, dec("100"), dec("30"), floor)
		assert.False(t, fired)
	})

	t.Run("zero revenue skipped", func(t *testing.T) {
		_, fired := service.EvaluateOrderMargin(tenantID, orderID, 7, decimal.Zero, dec("10"), floor)
		assert.False(t, fired)
	})

	t.Run("negative margin fires", func(t *testing.T) {
		alert, fired := service.EvaluateOrderMargin(tenantID, orderID, 7, dec("50"), dec("60"), floor)
		require.True(t, fired)
		assert.True(t, alert.NetProfit.IsNegative())
	})
}

func TestEvaluateLaborCost(t *testing.T) {
	tenantID := uuid.New()
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	maxRatio := dec("0.35")

	t.Run("above ceiling fires", func(t *testing.T) {
		alert, fired := service.EvaluateLaborCost(tenantID, day, dec("1000"), dec("400"), maxRatio)
		require.True(t, fired)
		assert.Equal(t, "2026-04-02", alert.Date)
		assert.True(t, alert.Ratio.Equal(dec("0.4")))
	})

	t.Run("at ceiling stays silent", func(t *testing.T) {
		_, fired := service.EvaluateLaborCost(tenantID, day, dec("1000"), dec("350"), maxRatio)
		assert.False(t, fired)
	})

	t.Run("no revenue skipped", func(t *testing.T) {
		_, fired := service.EvaluateLaborCost(tenantID, day, decimal.Zero, dec("350"), maxRatio)
		assert.False(t, fired)
	})
}

// ── Delivery ─────────────────────────────────────────────────────────────────

type stubPusher struct {
	events  []string
	pushErr error
}

func (p *stubPusher) Push(_ context.Context, eventName string, _ interface{}) error {
	p.events = append(p.events, eventName)
	return p.pushErr
}

type stubEnqueuer struct {
	payloads []interface{}
	err      error
}

func (e *stubEnqueuer) EnqueueAlert(_ context.Context, payload interface{}) error {
	e.payloads = append(e.payloads, payload)
	return e.err
}

func TestAlertServiceDeliversToBothChannels(t *testing.T) {
	push := &stubPusher{}
	mail := &stubEnqueuer{}
	svc := service.NewAlertService(push, mail, 20.0, 0.35)

	scope, err := repository.NewScope(uuid.New())
	require.NoError(t, err)

	svc.CheckOrderMargin(context.Background(), scope, uuid.New(), 3, dec("100"), dec("90"))

	require.Len(t, push.events, 1)
	assert.Equal(t, "alert.low_margin", push.events[0])
	assert.Len(t, mail.payloads, 1)
}

func TestAlertServiceSilentWhenThresholdHolds(t *testing.T) {
	push := &stubPusher{}
	mail := &stubEnqueuer{}
	svc := service.NewAlertService(push, mail, 20.0, 0.35)

	scope, err := repository.NewScope(uuid.New())
	require.NoError(t, err)

	svc.CheckOrderMargin(context.Background(), scope, uuid.New(), 3, dec("100"), dec("50"))
	svc.CheckLaborCost(context.Background(), scope, time.Now(), dec("1000"), dec("100"))

	assert.Empty(t, push.events)
	assert.Empty(t, mail.payloads)
}

func TestAlertServiceSwallowsDeliveryFailures(t *testing.T) {
	push := &stubPusher{pushErr: errors.New("redis down")}
	mail := &stubEnqueuer{err: errors.New("queue full")}
	svc := service.NewAlertService(push, mail, 20.0, 0.35)

	scope, err := repository.NewScope(uuid.New())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		svc.CheckLaborCost(context.Background(), scope, time.Now(), dec("1000"), dec("900"))
	})
	// Both channels were still attempted.
	assert.Len(t, push.events, 1)
	assert.Len(t, mail.payloads, 1)
}
