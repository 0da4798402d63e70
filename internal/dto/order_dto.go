package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// OrderFilter is bound from query string of GET /v1/orders.
type OrderFilter struct {
	Date   string `form:"date"`               // YYYY-MM-DD; empty = all
	Status string `form:"status,default=all"` // new | preparing | ready | served | paid | cancelled | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderItemModifierRequest struct {
	Name  string          `json:"name"  validate:"required"`
	Price decimal.Decimal `json:"price" validate:"min=0"`
}

type OrderItemRequest struct {
	ProductID string                     `json:"product_id" validate:"required,uuid"`
	Quantity  int                        `json:"quantity"   validate:"required,min=1"`
	Modifiers []OrderItemModifierRequest `json:"modifiers"  validate:"omitempty,dive"`
}

type PlaceOrderRequest struct {
	TableID string `json:"table_id" validate:"required,uuid"`
	// CustomerID is set when the guest identified for loyalty accrual.
	CustomerID *string            `json:"customer_id" validate:"omitempty,uuid"`
	Items      []OrderItemRequest `json:"items"       validate:"required,min=1,dive"`
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash debit credit transfer"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemModifierResponse struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type OrderItemResponse struct {
	ProductName string                      `json:"product_name"`
	Quantity    int                         `json:"quantity"`
	UnitPrice   decimal.Decimal             `json:"unit_price"`
	LineTotal   decimal.Decimal             `json:"line_total"`
	Modifiers   []OrderItemModifierResponse `json:"modifiers,omitempty"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	Number        int                 `json:"number"`
	TableName     string              `json:"table_name"`
	Status        string              `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
}
