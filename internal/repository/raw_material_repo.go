package repository

import (
	"context"
	"errors"

	"blendresto/internal/domain"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RawMaterialRepository maintains the denormalized current-stock aggregate
// and the last-known purchase cost. Lot mutations and aggregate updates
// always travel in the same transaction.
type RawMaterialRepository interface {
	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.RawMaterial, error)
	List(ctx context.Context, scope Scope) ([]model.RawMaterial, error)
	// ListBelowMinimum returns materials whose aggregate dropped under their
	// alert threshold.
	ListBelowMinimum(ctx context.Context, scope Scope) ([]model.RawMaterial, error)

	// Used inside transactions — callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, scope Scope, id uuid.UUID) (*model.RawMaterial, error)
	AdjustStockTx(tx *gorm.DB, scope Scope, id uuid.UUID, delta decimal.Decimal) error
	UpdateLastCostTx(tx *gorm.DB, scope Scope, id uuid.UUID, cost decimal.Decimal) error
}

type rawMaterialRepo struct{ db *gorm.DB }

func NewRawMaterialRepository(db *gorm.DB) RawMaterialRepository {
	return &rawMaterialRepo{db: db}
}

func (r *rawMaterialRepo) FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.RawMaterial, error) {
	var m model.RawMaterial
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", scope.TenantID()).
		First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, scope.Check(m.TenantID)
}

func (r *rawMaterialRepo) List(ctx context.Context, scope Scope) ([]model.RawMaterial, error) {
	var materials []model.RawMaterial
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", scope.TenantID()).
		Order("name ASC").
		Find(&materials).Error
	return materials, err
}

func (r *rawMaterialRepo) ListBelowMinimum(ctx context.Context, scope Scope) ([]model.RawMaterial, error) {
	var materials []model.RawMaterial
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND current_stock < minimum_stock", scope.TenantID()).
		Order("name ASC").
		Find(&materials).Error
	return materials, err
}

func (r *rawMaterialRepo) FindByIDTx(tx *gorm.DB, scope Scope, id uuid.UUID) (*model.RawMaterial, error) {
	var m model.RawMaterial
	err := tx.Where("tenant_id = ?", scope.TenantID()).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, scope.Check(m.TenantID)
}

func (r *rawMaterialRepo) AdjustStockTx(tx *gorm.DB, scope Scope, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.RawMaterial{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error
}

func (r *rawMaterialRepo) UpdateLastCostTx(tx *gorm.DB, scope Scope, id uuid.UUID, cost decimal.Decimal) error {
	return tx.Model(&model.RawMaterial{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Update("last_unit_cost", cost).Error
}
