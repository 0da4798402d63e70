package handler

import (
	"context"
	"net/http"

	"blendresto/internal/apierror"
	"blendresto/internal/dto"
	"blendresto/internal/middleware"
	"blendresto/internal/repository"
	"blendresto/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// requireScope resolves the tenant scope from the JWT or aborts with 401.
func requireScope(c *gin.Context) (repository.Scope, bool) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("Token is missing a tenant"))
		return repository.Scope{}, false
	}
	return scope, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// Place godoc
// @Summary      Place a new order
// @Description  Opens an order for a table, snapshotting product names and prices at order time.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.PlaceOrderRequest true "Order detail"
// @Success      201  {object} dto.OrderResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/orders [post]
func (h *OrdersHandler) Place(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var req dto.PlaceOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Place(c.Request.Context(), scope, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List orders
// @Description  Returns a paginated list of orders filtered by date and status.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        date   query string false "Date YYYY-MM-DD (default: all)"
// @Param        status query string false "new | preparing | ready | served | paid | cancelled | all"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Records per page (default 50)"
// @Success      200    {object} dto.OrderListResponse
// @Failure      400    {object} apierror.APIError
// @Router       /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), scope, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list orders"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get one order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      200 {object} dto.OrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/orders/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
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

// MarkPreparing godoc
// @Summary      Move order to preparing
// @Tags         orders
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/orders/{id}/preparing [post]
func (h *OrdersHandler) MarkPreparing(c *gin.Context) {
	h.transition(c, h.svc.MarkPreparing)
}

// MarkReady godoc
// @Summary      Move order to ready
// @Tags         orders
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/orders/{id}/ready [post]
func (h *OrdersHandler) MarkReady(c *gin.Context) {
	h.transition(c, h.svc.MarkReady)
}

// MarkServed godoc
// @Summary      Move order to served
// @Tags         orders
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/orders/{id}/served [post]
func (h *OrdersHandler) MarkServed(c *gin.Context) {
	h.transition(c, h.svc.MarkServed)
}

// Cancel godoc
// @Summary      Cancel order
// @Description  Cancels an open order. Terminal orders cannot be cancelled.
// @Tags         orders
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/orders/{id} [delete]
func (h *OrdersHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

func (h *OrdersHandler) transition(c *gin.Context, fn func(ctx context.Context, scope repository.Scope, id uuid.UUID) error) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), scope, id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Checkout godoc
// @Summary      Check out an order
// @Description  Records payment, finalizes the total and kicks off fulfillment (kitchen push, loyalty accrual, stock depletion).
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string              true "Order UUID"
// @Param        body body dto.CheckoutRequest true "Payment detail"
// @Success      200  {object} dto.OrderResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/orders/{id}/checkout [post]
func (h *OrdersHandler) Checkout(c *gin.Context) {
	scope, ok := requireScope(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var userID *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			userID = &uid
		}
	}

	resp, err := h.svc.Checkout(c.Request.Context(), scope, id, userID, req)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
