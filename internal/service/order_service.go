package service

import (
	"context"
	"fmt"

	"blendresto/internal/domain"
	"blendresto/internal/dto"
	"blendresto/internal/events"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns the order lifecycle. Transitions are one-way and no
// state is re-enterable; the only side effect the service itself performs
// is publishing the OrderPaid occurrence — after the paid state committed,
// never before.
type OrderService interface {
	Place(ctx context.Context, scope repository.Scope, req dto.PlaceOrderRequest) (*dto.OrderResponse, error)
	MarkPreparing(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	MarkReady(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	MarkServed(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	Checkout(ctx context.Context, scope repository.Scope, id uuid.UUID, userID *uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, scope repository.Scope, id uuid.UUID) error
	Get(ctx context.Context, scope repository.Scope, id uuid.UUID) (*dto.OrderResponse, error)
	List(ctx context.Context, scope repository.Scope, filter dto.OrderFilter) (*dto.OrderListResponse, error)
}

type orderService struct {
	repo     repository.OrderRepository
	products repository.ProductRepository
	bus      *events.Bus
}

func NewOrderService(repo repository.OrderRepository, products repository.ProductRepository, bus *events.Bus) OrderService {
	return &orderService{repo: repo, products: products, bus: bus}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Transition graph ──────────────────────────────────────────────────────────
// new → preparing → ready → served → paid, with paid reachable from any
// non-terminal status (walk-in counter orders skip the kitchen states) and
// cancelled reachable from any non-terminal status.

var transitions = map[string]map[string]bool{
	model.OrderStatusNew: {
		model.OrderStatusPreparing: true,
		model.OrderStatusReady:     true,
		model.OrderStatusPaid:      true,
		model.OrderStatusCancelled: true,
	},
	model.OrderStatusPreparing: {
		model.OrderStatusReady:     true,
		model.OrderStatusPaid:      true,
		model.OrderStatusCancelled: true,
	},
	model.OrderStatusReady: {
		model.OrderStatusServed:    true,
		model.OrderStatusPaid:      true,
		model.OrderStatusCancelled: true,
	},
	model.OrderStatusServed: {
		model.OrderStatusPaid:      true,
		model.OrderStatusCancelled: true,
	},
	// paid / cancelled: terminal, no outgoing edges
}

func canTransition(from, to string) bool { return transitions[from][to] }

// ── Place ─────────────────────────────────────────────────────────────────────

func (s *orderService) Place(ctx context.Context, scope repository.Scope, req dto.PlaceOrderRequest) (*dto.OrderResponse, error) {
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, fmt.Errorf("%w: table_id: %v", domain.ErrInvalidInput, err)
	}
	table, err := s.products.FindTable(ctx, scope, tableID)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", req.TableID, err)
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil {
		cid, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("%w: customer_id: %v", domain.ErrInvalidInput, err)
		}
		customerID = &cid
	}

	// Resolve products and snapshot names/prices before the write tx.
	type resolvedItem struct {
		productID uuid.UUID
		name      string
		price     decimal.Decimal
		quantity  int
		modifiers []dto.OrderItemModifierRequest
	}
	var resolved []resolvedItem
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product_id: %v", domain.ErrInvalidInput, err)
		}
		p, err := s.products.FindByID(ctx, scope, pid)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		resolved = append(resolved, resolvedItem{
			productID: pid,
			name:      p.Name,
			price:     p.Price,
			quantity:  item.Quantity,
			modifiers: item.Modifiers,
		})
	}

	var order model.Order
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextOrderNumberTx(tx, scope)
		if err != nil {
			return err
		}

		order = model.Order{
			TenantID:   scope.TenantID(),
			Number:     number,
			TableID:    &tableID,
			TableName:  table.Name,
			CustomerID: customerID,
			Status:     model.OrderStatusNew,
		}
		for _, r := range resolved {
			item := model.OrderItem{
				ProductID:   r.productID,
				ProductName: r.name,
				UnitPrice:   r.price,
				Quantity:    r.quantity,
			}
			for _, m := range r.modifiers {
				item.Modifiers = append(item.Modifiers, model.OrderItemModifier{
					Name:  m.Name,
					Price: m.Price,
				})
			}
			order.Items = append(order.Items, item)
		}
		order.Total = computeTotal(order.Items)

		return s.repo.Create(ctx, tx, &order)
	})
	if txErr != nil {
		return nil, txErr
	}
	return orderToResponse(&order), nil
}

// computeTotal sums item line totals (unit price × qty + modifier prices).
// The Order invariant: Total always equals this sum at last mutation.
func computeTotal(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].LineTotal())
	}
	return total.Round(2)
}

// ── Kitchen transitions ──────────────────────────────────────────────────────

func (s *orderService) MarkPreparing(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	return s.transition(ctx, scope, id, model.OrderStatusPreparing)
}

func (s *orderService) MarkReady(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	return s.transition(ctx, scope, id, model.OrderStatusReady)
}

func (s *orderService) MarkServed(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	return s.transition(ctx, scope, id, model.OrderStatusServed)
}

// Cancel is terminal and publishes nothing: cancellation triggers neither
// costing nor loyalty.
func (s *orderService) Cancel(ctx context.Context, scope repository.Scope, id uuid.UUID) error {
	return s.transition(ctx, scope, id, model.OrderStatusCancelled)
}

func (s *orderService) transition(ctx context.Context, scope repository.Scope, id uuid.UUID, to string) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		o, err := s.repo.FindByIDForUpdateTx(tx, scope, id)
		if err != nil {
			return err
		}
		if !canTransition(o.Status, to) {
			return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, o.Status, to)
		}
		return s.repo.UpdateStatusTx(tx, scope, id, to)
	})
}

// ── Checkout ─────────────────────────────────────────────────────────────────
// The payment path: freeze the total, commit paid, then publish. The
// occurrence goes out only after the transaction returned — consumers must
// never observe a payment that subsequently fails to persist. Conversely, a
// committed checkout reports success regardless of what any consumer does
// with the occurrence afterwards.

func (s *orderService) Checkout(ctx context.Context, scope repository.Scope, id uuid.UUID, userID *uuid.UUID, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	// Items are needed to freeze the computed total; load them up front.
	order, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	var total decimal.Decimal
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// Re-read under lock: the pre-flight status may be stale.
		locked, err := s.repo.FindByIDForUpdateTx(tx, scope, id)
		if err != nil {
			return err
		}
		if !canTransition(locked.Status, model.OrderStatusPaid) {
			return fmt.Errorf("%w: %s → paid", domain.ErrInvalidTransition, locked.Status)
		}
		total = computeTotal(order.Items)
		return s.repo.RecordPaymentTx(tx, scope, id, req.PaymentMethod, total)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Publish-after-commit. Fire-and-continue: the caller's response does
	// not wait on any consumer.
	s.bus.Publish(ctx, events.OrderPaid{
		TenantID:      scope.TenantID(),
		OrderID:       id,
		TotalAmount:   total,
		PaymentMethod: req.PaymentMethod,
		UserID:        userID,
	})

	order.Status = model.OrderStatusPaid
	order.Total = total
	order.PaymentMethod = &req.PaymentMethod
	return orderToResponse(order), nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *orderService) Get(ctx context.Context, scope repository.Scope, id uuid.UUID) (*dto.OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context, scope repository.Scope, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		mods := make([]dto.OrderItemModifierResponse, 0, len(item.Modifiers))
		for _, m := range item.Modifiers {
			mods = append(mods, dto.OrderItemModifierResponse{Name: m.Name, Price: m.Price})
		}
		items = append(items, dto.OrderItemResponse{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
			Modifiers:   mods,
		})
	}
	return &dto.OrderResponse{
		ID:            o.ID.String(),
		Number:        o.Number,
		TableName:     o.TableName,
		Status:        o.Status,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Items:         items,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
