package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DepletionResult reports what a FIFO depletion actually did. Shortfall > 0
// means physical stock ran out before the demand was satisfied — that is a
// stock-integrity warning for the caller, never an error.
type DepletionResult struct {
	Requested    decimal.Decimal
	Depleted     decimal.Decimal
	CostConsumed decimal.Decimal
	Shortfall    decimal.Decimal
}

// Short reports whether demand exceeded available lot stock.
func (r DepletionResult) Short() bool { return r.Shortfall.IsPositive() }

// CostingService is the FIFO lot engine: depletion walks lots oldest-first
// and reports the true cost consumed; receiving appends one lot per
// purchase line. Both sides keep the RawMaterial aggregate and the movement
// audit trail in the same transaction as the lot mutation.
type CostingService interface {
	// Deplete consumes up to quantity from (tenant, material) lots in FIFO
	// order. Partial depletion is reported, not thrown.
	Deplete(ctx context.Context, scope repository.Scope, materialID uuid.UUID, quantity decimal.Decimal, referenceID *uuid.UUID) (DepletionResult, error)

	// ReceivePurchase creates one StockLot per purchase line in a single
	// transaction: unitCost = line price, initial = remaining = line qty.
	// Each line also bumps its material aggregate and refreshes the
	// last-known cost.
	ReceivePurchase(ctx context.Context, scope repository.Scope, po *model.PurchaseOrder) error
}

type costingService struct {
	lots      repository.StockLotRepository
	materials repository.RawMaterialRepository
	movements repository.StockMovementRepository
	policy    string // config.StockPolicyRequested | config.StockPolicyDepleted
	locks     materialLocks
}

func NewCostingService(
	lots repository.StockLotRepository,
	materials repository.RawMaterialRepository,
	movements repository.StockMovementRepository,
	decrementPolicy string,
) CostingService {
	if decrementPolicy != config.StockPolicyDepleted {
		decrementPolicy = config.StockPolicyRequested
	}
	return &costingService{
		lots:      lots,
		materials: materials,
		movements: movements,
		policy:    decrementPolicy,
	}
}

// ── Depletion ─────────────────────────────────────────────────────────────────

func (s *costingService) Deplete(ctx context.Context, scope repository.Scope, materialID uuid.UUID, quantity decimal.Decimal, referenceID *uuid.UUID) (DepletionResult, error) {
	res := DepletionResult{
		Requested:    quantity,
		Depleted:     decimal.Zero,
		CostConsumed: decimal.Zero,
		Shortfall:    decimal.Zero,
	}
	if !quantity.IsPositive() {
		return res, nil
	}

	// Serialize per (tenant, material): two concurrent depletions walking the
	// same lot list would double-spend a lot. Row locks cover cross-process
	// writers; this mutex keeps in-process walkers from interleaving reads.
	unlock := s.locks.lock(scope.TenantID(), materialID)
	defer unlock()

	txErr := runTx(ctx, s.lots.DB(), func(tx *gorm.DB) error {
		material, err := s.materials.FindByIDTx(tx, scope, materialID)
		if err != nil {
			return err
		}

		lots, err := s.lots.FindOpenLotsForUpdateTx(tx, scope, materialID)
		if err != nil {
			return err
		}

		needed := quantity
		for i := range lots {
			if !needed.IsPositive() {
				break
			}
			lot := &lots[i]

			consume := decimal.Min(lot.RemainingQty, needed)
			remaining := lot.RemainingQty.Sub(consume)
			if err := s.lots.UpdateRemainingTx(tx, scope, lot.ID, remaining); err != nil {
				return err
			}

			res.Depleted = res.Depleted.Add(consume)
			res.CostConsumed = res.CostConsumed.Add(consume.Mul(lot.UnitCost))
			needed = needed.Sub(consume)
		}
		res.Shortfall = needed
		res.CostConsumed = res.CostConsumed.Round(2)

		// Aggregate decrement: by requested quantity (best-effort outflow
		// view) or by what lots actually held, per configuration.
		delta := res.Requested
		if s.policy == config.StockPolicyDepleted {
			delta = res.Depleted
		}
		if err := s.materials.AdjustStockTx(tx, scope, materialID, delta.Neg()); err != nil {
			return err
		}

		mov := &model.StockMovement{
			TenantID:      scope.TenantID(),
			RawMaterialID: materialID,
			Type:          "depletion",
			Quantity:      delta.Neg(),
			StockBefore:   material.CurrentStock,
			StockAfter:    material.CurrentStock.Sub(delta),
			ReferenceID:   referenceID,
			Note:          fmt.Sprintf("FIFO depletion, requested %s", quantity.String()),
		}
		return s.movements.CreateTx(tx, mov)
	})
	if txErr != nil {
		return DepletionResult{Requested: quantity}, txErr
	}

	if res.Short() {
		log.Warn().
			Str("tenant_id", scope.TenantID().String()).
			Str("raw_material_id", materialID.String()).
			Str("requested", res.Requested.String()).
			Str("depleted", res.Depleted.String()).
			Str("shortfall", res.Shortfall.String()).
			Msg("costing: lots exhausted before demand was satisfied")
	}
	return res, nil
}

// ── Receiving ─────────────────────────────────────────────────────────────────

func (s *costingService) ReceivePurchase(ctx context.Context, scope repository.Scope, po *model.PurchaseOrder) error {
	receivedAt := time.Now().UTC()
	if po.ReceivedAt != nil {
		receivedAt = *po.ReceivedAt
	}
	return runTx(ctx, s.lots.DB(), func(tx *gorm.DB) error {
		for _, line := range po.Items {
			if err := s.receiveLineTx(tx, scope, po.ID, line, receivedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *costingService) receiveLineTx(tx *gorm.DB, scope repository.Scope, purchaseOrderID uuid.UUID, line model.PurchaseOrderItem, receivedAt time.Time) error {
	material, err := s.materials.FindByIDTx(tx, scope, line.RawMaterialID)
	if err != nil {
		return fmt.Errorf("receive line: material %s: %w", line.RawMaterialID, err)
	}

	// Each purchase line is its own cost stratum: never merged with an
	// existing lot, since unit cost varies shipment to shipment.
	lot := &model.StockLot{
		TenantID:        scope.TenantID(),
		RawMaterialID:   line.RawMaterialID,
		PurchaseOrderID: purchaseOrderID,
		UnitCost:        line.UnitPrice,
		InitialQuantity: line.Quantity,
		RemainingQty:    line.Quantity,
		CreatedAt:       receivedAt,
	}
	if err := s.lots.CreateTx(tx, lot); err != nil {
		return err
	}

	if err := s.materials.AdjustStockTx(tx, scope, line.RawMaterialID, line.Quantity); err != nil {
		return err
	}
	if err := s.materials.UpdateLastCostTx(tx, scope, line.RawMaterialID, line.UnitPrice); err != nil {
		return err
	}

	poRef := purchaseOrderID
	mov := &model.StockMovement{
		TenantID:      scope.TenantID(),
		RawMaterialID: line.RawMaterialID,
		Type:          "receipt",
		Quantity:      line.Quantity,
		StockBefore:   material.CurrentStock,
		StockAfter:    material.CurrentStock.Add(line.Quantity),
		ReferenceID:   &poRef,
		Note:          fmt.Sprintf("lot received at %s/unit", line.UnitPrice.StringFixed(2)),
	}
	return s.movements.CreateTx(tx, mov)
}

// ── Per-material serialization ────────────────────────────────────────────────

// materialLocks hands out one mutex per (tenant, material) pair. Entries are
// never evicted; the set of materials per process is small and stable.
type materialLocks struct {
	m sync.Map
}

func (l *materialLocks) lock(tenantID, materialID uuid.UUID) (unlock func()) {
	key := tenantID.String() + "/" + materialID.String()
	v, _ := l.m.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
