package repository

import (
	"context"
	"errors"
	"time"

	"blendresto/internal/domain"
	"blendresto/internal/dto"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines the data access contract for orders.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, scope Scope, filter dto.OrderFilter) ([]model.Order, int64, error)

	// Used inside transactions — callers must pass the tx instance
	FindByIDForUpdateTx(tx *gorm.DB, scope Scope, id uuid.UUID) (*model.Order, error)
	NextOrderNumberTx(tx *gorm.DB, scope Scope) (int, error)
	UpdateStatusTx(tx *gorm.DB, scope Scope, id uuid.UUID, status string) error
	RecordPaymentTx(tx *gorm.DB, scope Scope, id uuid.UUID, method string, total decimal.Decimal) error

	// SumRevenueForDay totals paid orders for one calendar day, keyed on
	// paid_at (labor alert).
	SumRevenueForDay(ctx context.Context, scope Scope, day time.Time) (decimal.Decimal, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Order) error {
	return tx.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Modifiers").
		Where("tenant_id = ?", scope.TenantID()).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, scope.Check(o.TenantID)
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, scope Scope, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", scope.TenantID()).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, scope.Check(o.TenantID)
}

func (r *orderRepo) List(ctx context.Context, scope Scope, filter dto.OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("tenant_id = ?", scope.TenantID())

	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		if day, err := time.Parse("2006-01-02", filter.Date); err == nil {
			q = q.Where("created_at >= ? AND created_at < ?", day, day.AddDate(0, 0, 1))
		}
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Modifiers").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

// NextOrderNumberTx allocates the next per-tenant order number. Runs inside
// the creation tx so two concurrent placements cannot take the same number.
func (r *orderRepo) NextOrderNumberTx(tx *gorm.DB, scope Scope) (int, error) {
	var next int
	err := tx.Raw(
		"SELECT COALESCE(MAX(number), 0) + 1 FROM orders WHERE tenant_id = ?",
		scope.TenantID(),
	).Scan(&next).Error
	return next, err
}

func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, scope Scope, id uuid.UUID, status string) error {
	return tx.Model(&model.Order{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Update("status", status).Error
}

func (r *orderRepo) RecordPaymentTx(tx *gorm.DB, scope Scope, id uuid.UUID, method string, total decimal.Decimal) error {
	return tx.Model(&model.Order{}).
		Where("id = ? AND tenant_id = ?", id, scope.TenantID()).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusPaid,
			"payment_method": method,
			"total":          total,
			"paid_at":        time.Now().UTC(),
		}).Error
}

func (r *orderRepo) SumRevenueForDay(ctx context.Context, scope Scope, day time.Time) (decimal.Decimal, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("SUM(total)").
		Where("tenant_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?",
			scope.TenantID(), model.OrderStatusPaid, start, start.AddDate(0, 0, 1)).
		Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *orderRepo) DB() *gorm.DB { return r.db }
