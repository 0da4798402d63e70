package repository

import (
	"context"
	"errors"

	"blendresto/internal/domain"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository gives order placement its price/name snapshots. Product
// administration itself lives on a separate surface.
type ProductRepository interface {
	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.Product, error)
	FindTable(ctx context.Context, scope Scope, id uuid.UUID) (*model.DiningTable, error)
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = true", scope.TenantID()).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, scope.Check(p.TenantID)
}

func (r *productRepo) FindTable(ctx context.Context, scope Scope, id uuid.UUID) (*model.DiningTable, error) {
	var t model.DiningTable
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", scope.TenantID()).
		First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, scope.Check(t.TenantID)
}
