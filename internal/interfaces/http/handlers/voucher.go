package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/voucher"
)

// VoucherHandler lists the vouchers shoppers can use
type VoucherHandler struct {
	vouchers *voucher.Service
}

func NewVoucherHandler(voucherService *voucher.Service) *VoucherHandler {
	return &VoucherHandler{vouchers: voucherService}
}

// GetAvailableVouchers handles GET /vouchers
func (h *VoucherHandler) GetAvailableVouchers(c *gin.Context) {
	vouchers, err := h.vouchers.List(c.Request.Context(), voucher.ListRequest{AvailableOnly: true})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Vouchers retrieved successfully",
		"data":    vouchers,
	})
}
