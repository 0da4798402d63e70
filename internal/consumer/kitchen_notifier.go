// Package consumer holds the fulfillment consumers registered on the event
// bus. Each consumer runs its own unit of work; its failure never reaches
// the publisher or its siblings.
package consumer

import (
	"context"
	"fmt"

	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/shopspring/decimal"
)

// orderPaidPush is the wire payload kitchen/bar displays receive.
type orderPaidPush struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   int             `json:"order_number"`
	TableName     string          `json:"table_name"`
	Status        string          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

// KitchenNotifier pushes paid orders onto the realtime channel. No persisted
// side effect — safe to retry, and failures are logged by the bus, never
// escalated.
type KitchenNotifier struct {
	orders repository.OrderRepository
	push   service.RealtimePusher
}

func NewKitchenNotifier(orders repository.OrderRepository, push service.RealtimePusher) *KitchenNotifier {
	return &KitchenNotifier{orders: orders, push: push}
}

func (c *KitchenNotifier) Name() string { return "kitchen_notifier" }

func (c *KitchenNotifier) Handle(ctx context.Context, evt events.Event) error {
	paid, ok := evt.(events.OrderPaid)
	if !ok {
		return fmt.Errorf("kitchen_notifier: unexpected event %s", evt.Name())
	}
	scope, err := repository.NewScope(paid.TenantID)
	if err != nil {
		return err
	}

	// Re-read for the denormalized snapshot fields the displays need.
	order, err := c.orders.FindByID(ctx, scope, paid.OrderID)
	if err != nil {
		return fmt.Errorf("kitchen_notifier: order %s: %w", paid.OrderID, err)
	}

	return c.push.Push(ctx, events.OrderPaidName, orderPaidPush{
		OrderID:       order.ID.String(),
		OrderNumber:   order.Number,
		TableName:     order.TableName,
		Status:        model.OrderStatusPaid,
		TotalAmount:   paid.TotalAmount,
		PaymentMethod: paid.PaymentMethod,
	})
}
