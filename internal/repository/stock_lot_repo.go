package repository

import (
	"context"

	"blendresto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockLotRepository is the FIFO ledger. Lots are append-only: receiving
// creates them, depletion decrements RemainingQty, nothing ever deletes one.
type StockLotRepository interface {
	ListByMaterial(ctx context.Context, scope Scope, materialID uuid.UUID) ([]model.StockLot, error)

	// Used inside transactions — callers must pass the tx instance
	CreateTx(tx *gorm.DB, lot *model.StockLot) error
	// FindOpenLotsForUpdateTx returns lots with remaining stock in FIFO order
	// (created_at ASC), row-locked so concurrent depletions of the same
	// material cannot double-spend a lot.
	FindOpenLotsForUpdateTx(tx *gorm.DB, scope Scope, materialID uuid.UUID) ([]model.StockLot, error)
	UpdateRemainingTx(tx *gorm.DB, scope Scope, lotID uuid.UUID, remaining decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockLotRepo struct{ db *gorm.DB }

func NewStockLotRepository(db *gorm.DB) StockLotRepository { return &stockLotRepo{db: db} }

func (r *stockLotRepo) ListByMaterial(ctx context.Context, scope Scope, materialID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND raw_material_id = ?", scope.TenantID(), materialID).
		Order("created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *stockLotRepo) CreateTx(tx *gorm.DB, lot *model.StockLot) error {
	return tx.Create(lot).Error
}

func (r *stockLotRepo) FindOpenLotsForUpdateTx(tx *gorm.DB, scope Scope, materialID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND raw_material_id = ? AND remaining_qty > 0", scope.TenantID(), materialID).
		Order("created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *stockLotRepo) UpdateRemainingTx(tx *gorm.DB, scope Scope, lotID uuid.UUID, remaining decimal.Decimal) error {
	return tx.Model(&model.StockLot{}).
		Where("id = ? AND tenant_id = ?", lotID, scope.TenantID()).
		Update("remaining_qty", remaining).Error
}

func (r *stockLotRepo) DB() *gorm.DB { return r.db }
