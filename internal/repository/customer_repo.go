package repository

import (
	"context"
	"errors"

	"blendresto/internal/domain"
	"blendresto/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository handles loyalty balances and the per-order credit
// ledger behind them.
type CustomerRepository interface {
	FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.Customer, error)

	// CreditOnceTx inserts the LoyaltyCredit and bumps the customer balance
	// in one transaction. The unique index on order_id makes the whole
	// operation set-once: a redelivered occurrence inserts nothing, the
	// balance is untouched, and inserted=false is returned.
	CreditOnceTx(tx *gorm.DB, credit *model.LoyaltyCredit) (inserted bool, err error)

	// DB exposes the underlying *gorm.DB so consumers can open transactions.
	DB() *gorm.DB
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) FindByID(ctx context.Context, scope Scope, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", scope.TenantID()).
		First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, scope.Check(c.TenantID)
}

func (r *customerRepo) CreditOnceTx(tx *gorm.DB, credit *model.LoyaltyCredit) (bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(credit)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Conflict — this order was already credited.
		return false, nil
	}
	err := tx.Model(&model.Customer{}).
		Where("id = ? AND tenant_id = ?", credit.CustomerID, credit.TenantID).
		Update("points", gorm.Expr("points + ?", credit.Points)).Error
	return err == nil, err
}

func (r *customerRepo) DB() *gorm.DB { return r.db }
