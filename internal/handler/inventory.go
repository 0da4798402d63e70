package handler

import (
	"net/http"
	"strconv"
	"time"

	"blendresto/internal/apierror"
	"blendresto/internal/dto"
	"blendresto/internal/model"
	"blendresto/internal/repository"

	"github.com/gin-gonic/gin"
)

// InventoryHandler is read-only reporting over the stock tables; it talks to
// the repositories directly — there is no write path here.
type InventoryHandler struct {
	materials repository.RawMaterialRepository
	lots      repository.StockLotRepository
	movements repository.StockMovementRepository
}

func NewInventoryHandler(
	materials repository.RawMaterialRepository,
	lots repository.StockLotRepository,
	movements repository.StockMovementRepository,
) *InventoryHandler {
	return &InventoryHandler{materials: materials, lots: lots, movements: movements}
}

// ListMaterials godoc
// @Summary      List raw materials
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.MaterialResponse
// @Router       /v1/inventory/materials [get]
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	materials, err := h.materials.List(c.Request.Context(), scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list materials"))
		return
	}
	out := make([]dto.MaterialResponse, 0, len(materials))
	for _, m := range materials {
		out = append(out, materialToResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

// ListLots godoc
// @Summary      List stock lots for a material
// @Description  Returns all lots, including depleted ones — the per-batch cost audit trail.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Raw material UUID"
// @Success      200 {array} dto.LotResponse
// @Router       /v1/inventory/materials/{id}/lots [get]
func (h *InventoryHandler) ListLots(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	lots, err := h.lots.ListByMaterial(c.Request.Context(), scope, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list lots"))
		return
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		resp := dto.LotResponse{
			ID:              l.ID.String(),
			PurchaseOrderID: l.PurchaseOrderID.String(),
			UnitCost:        l.UnitCost,
			InitialQuantity: l.InitialQuantity,
			RemainingQty:    l.RemainingQty,
			CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		}
		if l.ExpiresAt != nil {
			s := l.ExpiresAt.Format(time.RFC3339)
			resp.ExpiresAt = &s
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// ListMovements godoc
// @Summary      List stock movements
// @Description  Returns the most recent aggregate mutations (receipts and depletions).
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max rows (default 100)"
// @Success      200 {array} dto.MovementResponse
// @Router       /v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	limit := 100
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	movements, err := h.movements.List(c.Request.Context(), scope, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list movements"))
		return
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.MovementResponse{
			ID:            m.ID.String(),
			RawMaterialID: m.RawMaterialID.String(),
			Type:          m.Type,
			Quantity:      m.Quantity,
			StockBefore:   m.StockBefore,
			StockAfter:    m.StockAfter,
			Note:          m.Note,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

// StockAlerts godoc
// @Summary      Materials below minimum stock
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.StockAlertResponse
// @Router       /v1/inventory/alerts [get]
func (h *InventoryHandler) StockAlerts(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	materials, err := h.materials.ListBelowMinimum(c.Request.Context(), scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to query stock alerts"))
		return
	}
	out := make([]dto.StockAlertResponse, 0, len(materials))
	for _, m := range materials {
		out = append(out, dto.StockAlertResponse{
			RawMaterialID: m.ID.String(),
			Name:          m.Name,
			CurrentStock:  m.CurrentStock,
			MinimumStock:  m.MinimumStock,
		})
	}
	c.JSON(http.StatusOK, out)
}

func materialToResponse(m model.RawMaterial) dto.MaterialResponse {
	return dto.MaterialResponse{
		ID:           m.ID.String(),
		Name:         m.Name,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		MinimumStock: m.MinimumStock,
		LastUnitCost: m.LastUnitCost,
	}
}
