package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/logger"
)

// SellerHandler serves the seller dashboard: order fulfilment and vouchers
type SellerHandler struct {
	orders   *order.Service
	vouchers *voucher.Service
	log      *logrus.Entry
}

// NewSellerHandler creates a new seller handler
func NewSellerHandler(orderService *order.Service, voucherService *voucher.Service, log logrus.FieldLogger) *SellerHandler {
	return &SellerHandler{
		orders:   orderService,
		vouchers: voucherService,
		log:      logger.Component(log, "seller"),
	}
}

// UpdateItemStatusRequest moves an order item along its status flow
type UpdateItemStatusRequest struct {
	Status order.Status `json:"status" binding:"required,order_status"`
	Notes  string       `json:"notes" binding:"max=500"`
}

// UpdateVoucherStatusRequest switches a voucher on or off
type UpdateVoucherStatusRequest struct {
	Status voucher.Status `json:"status" binding:"required,voucher_status"`
}

// GetOrders handles GET /seller/orders
func (h *SellerHandler) GetOrders(c *gin.Context) {
	var req order.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

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

// GetOrder handles GET /seller/orders/:id
func (h *SellerHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// UpdateItemStatus handles PUT /seller/orders/:id/items/:itemID/status
func (h *SellerHandler) UpdateItemStatus(c *gin.Context) {
	var req UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orders.UpdateItemStatus(c.Request.Context(), c.Param("id"), c.Param("itemID"), req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	seller, _ := middleware.GetSellerEmailFromContext(c)
	h.log.WithFields(logrus.Fields{
		"seller":   seller,
		"order_id": o.ID,
		"item_id":  c.Param("itemID"),
		"status":   req.Status,
	}).Info("order item status updated")

	c.JSON(http.StatusOK, gin.H{
		"message": "Order item status updated successfully",
		"data":    o,
	})
}

// GetVouchers handles GET /seller/vouchers
func (h *SellerHandler) GetVouchers(c *gin.Context) {
	var req voucher.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	vouchers, err := h.vouchers.List(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vouchers retrieved successfully",
		"data":    vouchers,
	})
}

// CreateVoucher handles POST /seller/vouchers
func (h *SellerHandler) CreateVoucher(c *gin.Context) {
	var req voucher.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.vouchers.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Voucher created successfully",
		"data":    v,
	})
}

// UpdateVoucherStatus handles PUT /seller/vouchers/:id/status
func (h *SellerHandler) UpdateVoucherStatus(c *gin.Context) {
	var req UpdateVoucherStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	v, err := h.vouchers.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Voucher status updated successfully",
		"data":    v,
	})
}
