package consumer

import (
	"context"
	"fmt"

	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/rs/zerolog/log"
)

// Receiving turns a received purchase order into FIFO lots: one per line.
// Guarded — it only proceeds when the purchase order's status actually is
// Received; anything else no-ops with a warning (the occurrence may race a
// late cancellation or be redelivered against stale state).
type Receiving struct {
	purchases repository.PurchaseOrderRepository
	costing   service.CostingService
}

func NewReceiving(purchases repository.PurchaseOrderRepository, costing service.CostingService) *Receiving {
	return &Receiving{purchases: purchases, costing: costing}
}

func (c *Receiving) Name() string { return "receiving" }

func (c *Receiving) Handle(ctx context.Context, evt events.Event) error {
	received, ok := evt.(events.PurchaseOrderReceived)
	if !ok {
		return fmt.Errorf("receiving: unexpected event %s", evt.Name())
	}
	scope, err := repository.NewScope(received.TenantID)
	if err != nil {
		return err
	}

	po, err := c.purchases.FindByID(ctx, scope, received.PurchaseOrderID)
	if err != nil {
		return fmt.Errorf("receiving: purchase order %s: %w", received.PurchaseOrderID, err)
	}
	if po.Status != model.PurchaseStatusReceived {
		log.Warn().
			Str("purchase_order_id", po.ID.String()).
			Str("status", po.Status).
			Msg("receiving: purchase order is not in received status, skipping")
		return nil
	}

	if err := c.costing.ReceivePurchase(ctx, scope, po); err != nil {
		return fmt.Errorf("receiving: create lots for %s: %w", po.ID, err)
	}

	log.Info().
		Str("purchase_order_id", po.ID.String()).
		Int("lots", len(po.Items)).
		Msg("receiving: lots created")
	return nil
}
