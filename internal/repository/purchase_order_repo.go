package repository

import (
	"context"
	"errors"
	"time"

	"blendresto/internal/domain"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PurchaseOrderRepository covers the slice of purchasing this service needs:
// creating a draft, marking it received, and reading it back for lot
// creation. Supplier administration is a separate surface.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.PurchaseOrder, error)
	MarkReceivedTx(tx *gorm.DB, scope Scope, id uuid.UUID, at time.Time) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) Create(ctx context.Context, po *model.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ?", scope.TenantID()).
		First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &po, scope.Check(po.TenantID)
}

func (r *purchaseOrderRepo) MarkReceivedTx(tx *gorm.DB, scope Scope, id uuid.UUID, at time.Time) error {
	return tx.Model(&model.PurchaseOrder{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Updates(map[string]interface{}{
			"status":      model.PurchaseStatusReceived,
			"received_at": at,
		}).Error
}

func (r *purchaseOrderRepo) DB() *gorm.DB { return r.db }
