package handler

import (
	"net/http"

	"blendresto/internal/dto"
	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
)

type PurchasesHandler struct{ svc service.PurchaseService }

func NewPurchasesHandler(svc service.PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{svc: svc}
}

// Create godoc
// @Summary      Create a purchase order
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePurchaseRequest true "Purchase lines"
// @Success      201  {object} dto.PurchaseResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/purchases [post]
func (h *PurchasesHandler) Create(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var req dto.CreatePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), scope, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Receive godoc
// @Summary      Mark a purchase order received
// @Description  Marks the order received and books one stock lot per line at the purchase unit price.
// @Tags         purchases
// @Security     BearerAuth
// @Param        id path string true "Purchase order UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/purchases/{id}/receive [post]
func (h *PurchasesHandler) Receive(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Receive(c.Request.Context(), scope, id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get godoc
// @Summary      Get one purchase order
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Purchase order UUID"
// @Success      200 {object} dto.PurchaseResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/purchases/{id} [get]
func (h *PurchasesHandler) Get(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), scope, id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
