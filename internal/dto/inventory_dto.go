package dto

import "github.com/shopspring/decimal"

type MaterialResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	LastUnitCost decimal.Decimal `json:"last_unit_cost"`
}

type LotResponse struct {
	ID              string          `json:"id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	RemainingQty    decimal.Decimal `json:"remaining_qty"`
	CreatedAt       string          `json:"created_at"`
	ExpiresAt       *string         `json:"expires_at,omitempty"`
}

type MovementResponse struct {
	ID            string          `json:"id"`
	RawMaterialID string          `json:"raw_material_id"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	StockBefore   decimal.Decimal `json:"stock_before"`
	StockAfter    decimal.Decimal `json:"stock_after"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// StockAlertResponse flags a material whose aggregate fell below its
// minimum threshold.
type StockAlertResponse struct {
	RawMaterialID string          `json:"raw_material_id"`
	Name          string          `json:"name"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinimumStock  decimal.Decimal `json:"minimum_stock"`
}
