package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/domain"
	"blendresto/internal/model"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubLotRepo is an in-memory StockLotRepository for testing.
type stubLotRepo struct {
	lots map[uuid.UUID]*model.StockLot
}

func newStubLotRepo() *stubLotRepo {
	return &stubLotRepo{lots: make(map[uuid.UUID]*model.StockLot)}
}

func (r *stubLotRepo) add(lot model.StockLot) uuid.UUID {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	r.lots[lot.ID] = &lot
	return lot.ID
}

func (r *stubLotRepo) ListByMaterial(_ context.Context, scope repository.Scope, materialID uuid.UUID) ([]model.StockLot, error) {
	var out []model.StockLot
	for _, l := range r.lots {
		if l.TenantID == scope.TenantID() && l.RawMaterialID == materialID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubLotRepo) CreateTx(_ *gorm.DB, lot *model.StockLot) error {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	cp := *lot
	r.lots[lot.ID] = &cp
	return nil
}

func (r *stubLotRepo) FindOpenLotsForUpdateTx(_ *gorm.DB, scope repository.Scope, materialID uuid.UUID) ([]model.StockLot, error) {
	var out []model.StockLot
	for _, l := range r.lots {
		if l.TenantID == scope.TenantID() && l.RawMaterialID == materialID && l.RemainingQty.IsPositive() {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubLotRepo) UpdateRemainingTx(_ *gorm.DB, scope repository.Scope, lotID uuid.UUID, remaining decimal.Decimal) error {
	l, ok := r.lots[lotID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := scope.Check(l.TenantID); err != nil {
		return err
	}
	l.RemainingQty = remaining
	return nil
}

func (r *stubLotRepo) DB() *gorm.DB { return nil }

var _ repository.StockLotRepository = (*stubLotRepo)(nil)

// stubMaterialRepo is an in-memory RawMaterialRepository.
type stubMaterialRepo struct {
	materials map[uuid.UUID]*model.RawMaterial
}

func newStubMaterialRepo() *stubMaterialRepo {
	return &stubMaterialRepo{materials: make(map[uuid.UUID]*model.RawMaterial)}
}

func (r *stubMaterialRepo) add(m model.RawMaterial) uuid.UUID {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.materials[m.ID] = &m
	return m.ID
}

func (r *stubMaterialRepo) find(scope repository.Scope, id uuid.UUID) (*model.RawMaterial, error) {
	m, ok := r.materials[id]
	if !ok || m.TenantID != scope.TenantID() {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (r *stubMaterialRepo) FindByID(_ context.Context, scope repository.Scope, id uuid.UUID) (*model.RawMaterial, error) {
	return r.find(scope, id)
}

func (r *stubMaterialRepo) List(_ context.Context, scope repository.Scope) ([]model.RawMaterial, error) {
	var out []model.RawMaterial
	for _, m := range r.materials {
		if m.TenantID == scope.TenantID() {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMaterialRepo) ListBelowMinimum(_ context.Context, scope repository.Scope) ([]model.RawMaterial, error) {
	var out []model.RawMaterial
	for _, m := range r.materials {
		if m.TenantID == scope.TenantID() && m.CurrentStock.LessThan(m.MinimumStock) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubMaterialRepo) FindByIDTx(_ *gorm.DB, scope repository.Scope, id uuid.UUID) (*model.RawMaterial, error) {
	return r.find(scope, id)
}

func (r *stubMaterialRepo) AdjustStockTx(_ *gorm.DB, scope repository.Scope, id uuid.UUID, delta decimal.Decimal) error {
	m, err := r.find(scope, id)
	if err != nil {
		return err
	}
	m.CurrentStock = m.CurrentStock.Add(delta)
	return nil
}

func (r *stubMaterialRepo) UpdateLastCostTx(_ *gorm.DB, scope repository.Scope, id uuid.UUID, cost decimal.Decimal) error {
	m, err := r.find(scope, id)
	if err != nil {
		return err
	}
	m.LastUnitCost = cost
	return nil
}

var _ repository.RawMaterialRepository = (*stubMaterialRepo)(nil)

// stubMovementRepo captures audit rows for assertion.
type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ repository.Scope, _ int) ([]model.StockMovement, error) {
	return r.movements, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type costingFixture struct {
	svc       service.CostingService
	lots      *stubLotRepo
	materials *stubMaterialRepo
	movements *stubMovementRepo
	scope     repository.Scope
	flourID   uuid.UUID
	lotAID    uuid.UUID
	lotBID    uuid.UUID
}

// buildCostingFixture seeds Flour with two lots: A = 10 units at 2.00
// (older), B = 10 units at 2.50.
func buildCostingFixture(t *testing.T, policy string) *costingFixture {
	t.Helper()

	tenantID := uuid.New()
	scope, err := repository.NewScope(tenantID)
	require.NoError(t, err)

	lots := newStubLotRepo()
	materials := newStubMaterialRepo()
	movements := &stubMovementRepo{}

	flourID := materials.add(model.RawMaterial{
		TenantID:     tenantID,
		Name:         "Flour",
		Unit:         "kg",
		CurrentStock: decimal.NewFromInt(20),
	})

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	lotAID := lots.add(model.StockLot{
		TenantID:        tenantID,
		RawMaterialID:   flourID,
		PurchaseOrderID: uuid.New(),
		UnitCost:        decimal.RequireFromString("2.00"),
		InitialQuantity: decimal.NewFromInt(10),
		RemainingQty:    decimal.NewFromInt(10),
		CreatedAt:       base,
	})
	lotBID := lots.add(model.StockLot{
		TenantID:        tenantID,
		RawMaterialID:   flourID,
		PurchaseOrderID: uuid.New(),
		UnitCost:        decimal.RequireFromString("2.50"),
		InitialQuantity: decimal.NewFromInt(10),
		RemainingQty:    decimal.NewFromInt(10),
		CreatedAt:       base.Add(48 * time.Hour),
	})

	return &costingFixture{
		svc:       service.NewCostingService(lots, materials, movements, policy),
		lots:      lots,
		materials: materials,
		movements: movements,
		scope:     scope,
		flourID:   flourID,
		lotAID:    lotAID,
		lotBID:    lotBID,
	}
}

// ── Depletion tests ──────────────────────────────────────────────────────────

func TestDepleteWalksLotsOldestFirst(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	res, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(15), nil)
	require.NoError(t, err)

	// 10 × 2.00 + 5 × 2.50 = 32.50
	assert.True(t, res.CostConsumed.Equal(decimal.RequireFromString("32.50")), "cost = %s", res.CostConsumed)
	assert.True(t, res.Depleted.Equal(decimal.NewFromInt(15)))
	assert.False(t, res.Short())

	assert.True(t, f.lots.lots[f.lotAID].RemainingQty.IsZero(), "oldest lot drained first")
	assert.True(t, f.lots.lots[f.lotBID].RemainingQty.Equal(decimal.NewFromInt(5)))
}

func TestDepleteExactLotBoundary(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	res, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(10), nil)
	require.NoError(t, err)

	assert.True(t, res.CostConsumed.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, f.lots.lots[f.lotAID].RemainingQty.IsZero())
	assert.True(t, f.lots.lots[f.lotBID].RemainingQty.Equal(decimal.NewFromInt(10)), "next lot untouched")
}

func TestDepleteShortfallIsReportedNotThrown(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	res, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(25), nil)
	require.NoError(t, err, "shortfall must not surface as an error")

	assert.True(t, res.Short())
	assert.True(t, res.Depleted.Equal(decimal.NewFromInt(20)))
	assert.True(t, res.Shortfall.Equal(decimal.NewFromInt(5)))
	// Full cost of everything the lots held: 10×2.00 + 10×2.50
	assert.True(t, res.CostConsumed.Equal(decimal.RequireFromString("45.00")))

	// Remaining quantities never go negative.
	for _, lot := range f.lots.lots {
		assert.False(t, lot.RemainingQty.IsNegative())
	}
}

func TestDepleteConcurrentCallsDoNotDoubleSpendLots(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	// 20 racing depletions of 1 unit each against 20 units of stock. Calls
	// for the same (tenant, material) must serialize: interleaved lot walks
	// would consume the same lot twice and overshoot the cost.
	const callers = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		totalCost = decimal.Zero
		totalDep  = decimal.Zero
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			res, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(1), nil)
			assert.NoError(t, err)
			assert.False(t, res.Short())

			mu.Lock()
			totalCost = totalCost.Add(res.CostConsumed)
			totalDep = totalDep.Add(res.Depleted)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.True(t, totalDep.Equal(decimal.NewFromInt(20)), "depleted = %s", totalDep)
	// 10×2.00 + 10×2.50 — a double-spent lot would undershoot this.
	assert.True(t, totalCost.Equal(decimal.RequireFromString("45.00")), "cost = %s", totalCost)

	for _, lot := range f.lots.lots {
		assert.True(t, lot.RemainingQty.IsZero(), "lot %s remaining = %s", lot.ID, lot.RemainingQty)
	}
	stock, _ := f.materials.find(f.scope, f.flourID)
	assert.True(t, stock.CurrentStock.IsZero())
	assert.Len(t, f.movements.movements, callers)
}

func TestDepleteAggregatePolicyRequested(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	_, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(25), nil)
	require.NoError(t, err)

	// Aggregate decremented by the requested amount: 20 − 25 = −5.
	m := f.materials.materials[f.flourID]
	assert.True(t, m.CurrentStock.Equal(decimal.NewFromInt(-5)), "stock = %s", m.CurrentStock)
}

func TestDepleteAggregatePolicyDepleted(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyDepleted)

	_, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(25), nil)
	require.NoError(t, err)

	// Aggregate decremented only by what lots actually held: 20 − 20 = 0.
	m := f.materials.materials[f.flourID]
	assert.True(t, m.CurrentStock.IsZero(), "stock = %s", m.CurrentStock)
}

func TestDepleteZeroQuantityIsNoop(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	res, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.Zero, nil)
	require.NoError(t, err)

	assert.True(t, res.Depleted.IsZero())
	assert.Empty(t, f.movements.movements)
	assert.True(t, f.lots.lots[f.lotAID].RemainingQty.Equal(decimal.NewFromInt(10)))
}

func TestDepleteUnknownMaterialFails(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	_, err := f.svc.Deplete(context.Background(), f.scope, uuid.New(), decimal.NewFromInt(1), nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDepleteWritesAuditMovement(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)
	orderID := uuid.New()

	_, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(15), &orderID)
	require.NoError(t, err)

	require.Len(t, f.movements.movements, 1)
	mov := f.movements.movements[0]
	assert.Equal(t, "depletion", mov.Type)
	assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(-15)))
	require.NotNil(t, mov.ReferenceID)
	assert.Equal(t, orderID, *mov.ReferenceID)
}

func TestDepleteIsTenantScoped(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	otherScope, err := repository.NewScope(uuid.New())
	require.NoError(t, err)

	_, err = f.svc.Deplete(context.Background(), otherScope, f.flourID, decimal.NewFromInt(1), nil)
	assert.Error(t, err, "another tenant must not see this material")
}

// ── Receiving tests ──────────────────────────────────────────────────────────

func TestReceivePurchaseCreatesOneLotPerLine(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	sugarID := f.materials.add(model.RawMaterial{
		TenantID:     f.scope.TenantID(),
		Name:         "Sugar",
		Unit:         "kg",
		CurrentStock: decimal.Zero,
	})

	receivedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	po := &model.PurchaseOrder{
		ID:         uuid.New(),
		TenantID:   f.scope.TenantID(),
		Status:     model.PurchaseStatusReceived,
		ReceivedAt: &receivedAt,
		Items: []model.PurchaseOrderItem{
			{RawMaterialID: f.flourID, Quantity: decimal.NewFromInt(30), UnitPrice: decimal.RequireFromString("1.80")},
			{RawMaterialID: sugarID, Quantity: decimal.NewFromInt(12), UnitPrice: decimal.RequireFromString("3.10")},
		},
	}

	require.NoError(t, f.svc.ReceivePurchase(context.Background(), f.scope, po))

	flourLots, err := f.lots.ListByMaterial(context.Background(), f.scope, f.flourID)
	require.NoError(t, err)
	assert.Len(t, flourLots, 3) // two seeded + one received

	sugarLots, err := f.lots.ListByMaterial(context.Background(), f.scope, sugarID)
	require.NoError(t, err)
	require.Len(t, sugarLots, 1)
	lot := sugarLots[0]
	assert.True(t, lot.UnitCost.Equal(decimal.RequireFromString("3.10")))
	assert.True(t, lot.InitialQuantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, lot.RemainingQty.Equal(lot.InitialQuantity))
	assert.Equal(t, po.ID, lot.PurchaseOrderID)
	assert.Equal(t, receivedAt, lot.CreatedAt)

	// Aggregates bumped per line; last cost refreshed.
	assert.True(t, f.materials.materials[f.flourID].CurrentStock.Equal(decimal.NewFromInt(50)))
	assert.True(t, f.materials.materials[sugarID].CurrentStock.Equal(decimal.NewFromInt(12)))
	assert.True(t, f.materials.materials[sugarID].LastUnitCost.Equal(decimal.RequireFromString("3.10")))

	// One receipt movement per line.
	receipts := 0
	for _, m := range f.movements.movements {
		if m.Type == "receipt" {
			receipts++
		}
	}
	assert.Equal(t, 2, receipts)
}

func TestReceiveThenDepleteUsesNewStratum(t *testing.T) {
	f := buildCostingFixture(t, config.StockPolicyRequested)

	// Drain the two seeded lots completely.
	_, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(20), nil)
	require.NoError(t, err)

	receivedAt := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	po := &model.PurchaseOrder{
		ID:         uuid.New(),
		TenantID:   f.scope.TenantID(),
		Status:     model.PurchaseStatusReceived,
		ReceivedAt: &receivedAt,
		Items: []model.PurchaseOrderItem{
			{RawMaterialID: f.flourID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("2.75")},
		},
	}
	require.NoError(t, f.svc.ReceivePurchase(context.Background(), f.scope, po))

	res, err := f.svc.Deplete(context.Background(), f.scope, f.flourID, decimal.NewFromInt(4), nil)
	require.NoError(t, err)
	assert.True(t, res.CostConsumed.Equal(decimal.RequireFromString("11.00")), "4 × 2.75, cost = %s", res.CostConsumed)
	assert.False(t, res.Short())
}
