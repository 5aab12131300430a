package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orders "brewstock-system/internal/services/orders/handler"
)

type OrdersHTTPHandler struct {
	orders *orders.OrderHandler
}

func NewOrdersHTTPHandler(orderHandler *orders.OrderHandler) *OrdersHTTPHandler {
	return &OrdersHTTPHandler{
		orders: orderHandler,
	}
}

func (s *OrdersHTTPHandler) CreateOrder(c *gin.Context) {
	var req orders.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	order, err := s.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, order)
}

func (s *OrdersHTTPHandler) GetOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := s.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, order)
}

func (s *OrdersHTTPHandler) ListOrders(c *gin.Context) {
	list, err := s.orders.ListOrders(c.Request.Context(), parseDateRange(c))
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, list)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *OrdersHTTPHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, order)
}

func (s *OrdersHTTPHandler) MonthlyOrderCounts(c *gin.Context) {
	counts, err := s.orders.MonthlyOrderCounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, counts)
}

// Reconcile triggers an on-demand fulfillment sweep. The scheduled
// worker runs the same operation; both are safe to repeat.
func (s *OrdersHTTPHandler) Reconcile(c *gin.Context) {
	result, err := s.orders.ReconcileApprovedOrders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, result)
}
