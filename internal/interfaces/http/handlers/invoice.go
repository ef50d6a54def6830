// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

// GetInvoice handles GET /orders/:id/invoice. The PDF needs the wkhtmltopdf
// binary; ?format=html returns the rendered page instead.
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	o, err := h.orders.GetForSession(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "html" {
		page, err := h.invoices.GenerateInvoiceHTML(o)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	pdfBuffer, err := h.invoices.GenerateInvoice(o)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", pdf.InvoiceNumber(o)))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
