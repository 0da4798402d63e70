package dto

import "github.com/shopspring/decimal"

type PurchaseLineRequest struct {
	RawMaterialID string          `json:"raw_material_id" validate:"required,uuid"`
	Quantity      decimal.Decimal `json:"quantity"        validate:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"      validate:"required"`
}

type CreatePurchaseRequest struct {
	SupplierID *string               `json:"supplier_id" validate:"omitempty,uuid"`
	Items      []PurchaseLineRequest `json:"items"       validate:"required,min=1,dive"`
}

type PurchaseLineResponse struct {
	RawMaterialID string          `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type PurchaseResponse struct {
	ID         string                 `json:"id"`
	Status     string                 `json:"status"`
	ReceivedAt *string                `json:"received_at,omitempty"`
	Items      []PurchaseLineResponse `json:"items"`
	CreatedAt  string                 `json:"created_at"`
}
