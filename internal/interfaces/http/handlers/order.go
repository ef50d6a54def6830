// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

// OrderHandler handles the guest's own orders
type OrderHandler struct {
	orders   *order.Service
	invoices *pdf.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, invoices *pdf.Service) *OrderHandler {
	return &OrderHandler{
		orders:   orderService,
		invoices: invoices,
	}
}

// CancelOrderRequest represents order cancellation request
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.SessionID = middleware.GetSessionID(c)

	response, err := h.orders.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.GetForSession(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// TrackOrder handles GET /orders/track/:number?email=. The email must match
// the order so numbers cannot be enumerated.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "email query parameter is required",
		})
		return
	}

	o, err := h.orders.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !strings.EqualFold(o.Email, email) {
		respondError(c, order.ErrOrderNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	o, err := h.orders.GetForSession(ctx, c.Param("id"), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	notes := "Cancelled by customer"
	if req.Reason != "" {
		notes += ": " + req.Reason
	}
	cancelled, err := h.orders.Cancel(ctx, o.ID, notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    cancelled,
	})
}
