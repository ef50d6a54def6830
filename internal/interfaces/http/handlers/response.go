package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/auth"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{cart.ErrInvalidProduct, http.StatusBadRequest},
	{cart.ErrSessionRequired, http.StatusBadRequest},
	{catalog.ErrInvalidFilter, http.StatusBadRequest},
	{checkout.ErrInvalidContact, http.StatusBadRequest},
	{voucher.ErrInvalidVoucher, http.StatusBadRequest},
	{order.ErrEmptyOrder, http.StatusBadRequest},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},
	{catalog.ErrProductNotFound, http.StatusNotFound},
	{catalog.ErrVariantNotFound, http.StatusNotFound},
	{voucher.ErrVoucherNotFound, http.StatusNotFound},
	{order.ErrOrderNotFound, http.StatusNotFound},
	{order.ErrItemNotFound, http.StatusNotFound},
	{voucher.ErrDuplicateCode, http.StatusConflict},
	{order.ErrInvalidTransition, http.StatusConflict},
	{order.ErrNotCancellable, http.StatusConflict},
	{checkout.ErrNoItemsSelected, http.StatusUnprocessableEntity},
	{voucher.ErrVoucherInactive, http.StatusUnprocessableEntity},
	{voucher.ErrVoucherNotStarted, http.StatusUnprocessableEntity},
	{voucher.ErrVoucherExpired, http.StatusUnprocessableEntity},
	{voucher.ErrMinOrderNotMet, http.StatusUnprocessableEntity},
}

// respondError maps domain errors to status codes. Anything unknown is a 500
// whose cause is recorded on the context for the request logger.
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{
				"error": err.Error(),
			})
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      "Internal server error",
		"request_id": middleware.GetRequestID(c),
	})
}

func respondBindError(c *gin.Context, err error) {
	body := gin.H{"error": "Invalid request data"}
	if details := middleware.ValidationDetails(err); details != nil {
		body["details"] = details
	} else {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
