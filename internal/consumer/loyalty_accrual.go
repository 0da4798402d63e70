package consumer

import (
	"context"
	"fmt"

	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoyaltyAccrual credits points proportional to the paid total when the
// order has a linked customer. The credit is keyed by order id and set-once,
// so a redelivered occurrence cannot double-credit.
type LoyaltyAccrual struct {
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	// rate is points credited per currency unit paid.
	rate decimal.Decimal
}

func NewLoyaltyAccrual(orders repository.OrderRepository, customers repository.CustomerRepository, pointsRate float64) *LoyaltyAccrual {
	return &LoyaltyAccrual{
		orders:    orders,
		customers: customers,
		rate:      decimal.NewFromFloat(pointsRate),
	}
}

func (c *LoyaltyAccrual) Name() string { return "loyalty_accrual" }

func (c *LoyaltyAccrual) Handle(ctx context.Context, evt events.Event) error {
	paid, ok := evt.(events.OrderPaid)
	if !ok {
		return fmt.Errorf("loyalty_accrual: unexpected event %s", evt.Name())
	}
	scope, err := repository.NewScope(paid.TenantID)
	if err != nil {
		return err
	}

	order, err := c.orders.FindByID(ctx, scope, paid.OrderID)
	if err != nil {
		return fmt.Errorf("loyalty_accrual: order %s: %w", paid.OrderID, err)
	}
	if order.CustomerID == nil {
		// Anonymous order — nothing to accrue.
		return nil
	}

	points := paid.TotalAmount.Mul(c.rate).Round(2)
	if !points.IsPositive() {
		return nil
	}

	credit := &model.LoyaltyCredit{
		TenantID:   scope.TenantID(),
		CustomerID: *order.CustomerID,
		OrderID:    paid.OrderID,
		Points:     points,
	}

	var inserted bool
	txErr := runTx(ctx, c.customers.DB(), func(tx *gorm.DB) error {
		var err error
		inserted, err = c.customers.CreditOnceTx(tx, credit)
		return err
	})
	if txErr != nil {
		return txErr
	}
	if !inserted {
		log.Info().
			Str("order_id", paid.OrderID.String()).
			Msg("loyalty_accrual: order already credited, skipping")
		return nil
	}

	log.Info().
		Str("order_id", paid.OrderID.String()).
		Str("customer_id", order.CustomerID.String()).
		Str("points", points.String()).
		Msg("loyalty_accrual: points credited")
	return nil
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
