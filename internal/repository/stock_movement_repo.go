package repository

import (
	"context"

	"blendresto/internal/model"

	"gorm.io/gorm"
)

// StockMovementRepository appends to the immutable stock audit trail.
type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, scope Scope, limit int) ([]model.StockMovement, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) List(ctx context.Context, scope Scope, limit int) ([]model.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", scope.TenantID()).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}
