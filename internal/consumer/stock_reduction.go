package consumer

import (
	"context"
	"fmt"

	"blendresto/internal/events"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// StockReduction resolves each order item's recipe and depletes raw-material
// lots FIFO. The accumulated cost of goods sold feeds the order-margin
// evaluator. Items without recipe coverage contribute zero stock impact and
// never abort the run.
type StockReduction struct {
	orders  repository.OrderRepository
	recipes repository.RecipeRepository
	costing service.CostingService
	alerts  service.AlertService
}

func NewStockReduction(
	orders repository.OrderRepository,
	recipes repository.RecipeRepository,
	costing service.CostingService,
	alerts service.AlertService,
) *StockReduction {
	return &StockReduction{orders: orders, recipes: recipes, costing: costing, alerts: alerts}
}

func (c *StockReduction) Name() string { return "stock_reduction" }

func (c *StockReduction) Handle(ctx context.Context, evt events.Event) error {
	paid, ok := evt.(events.OrderPaid)
	if !ok {
		return fmt.Errorf("stock_reduction: unexpected event %s", evt.Name())
	}
	scope, err := repository.NewScope(paid.TenantID)
	if err != nil {
		return err
	}

	order, err := c.orders.FindByID(ctx, scope, paid.OrderID)
	if err != nil {
		return fmt.Errorf("stock_reduction: order %s: %w", paid.OrderID, err)
	}

	cogs := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]

		lines, err := c.recipes.ListByProduct(ctx, scope, item.ProductID)
		if err != nil {
			return fmt.Errorf("stock_reduction: recipe for %s: %w", item.ProductID, err)
		}
		if len(lines) == 0 {
			// Not stock-tracked.
			continue
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		for _, line := range lines {
			required := line.Amount.Mul(qty)
			res, err := c.costing.Deplete(ctx, scope, line.RawMaterialID, required, &order.ID)
			if err != nil {
				return fmt.Errorf("stock_reduction: deplete %s: %w", line.RawMaterialID, err)
			}
			cogs = cogs.Add(res.CostConsumed)
			if res.Short() {
				log.Warn().
					Str("order_id", order.ID.String()).
					Str("raw_material_id", line.RawMaterialID.String()).
					Str("shortfall", res.Shortfall.String()).
					Msg("stock_reduction: stock integrity warning — shortfall during depletion")
			}
		}
	}

	if c.alerts != nil {
		c.alerts.CheckOrderMargin(ctx, scope, order.ID, order.Number, paid.TotalAmount, cogs)
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("cogs", cogs.StringFixed(2)).
		Msg("stock_reduction: depletion complete")
	return nil
}
