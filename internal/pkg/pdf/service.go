// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/order"
	"golang.org/x/text/currency"
)

// Service renders order invoices
type Service struct {
	company CompanyInfo
	now     func() time.Time
	tmpl    *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: CompanyInfo{
			Name:    cfg.App.CompanyName,
			Address: cfg.App.CompanyAddress,
			Phone:   cfg.App.CompanyPhone,
			Email:   cfg.App.CompanyEmail,
			Website: cfg.App.CompanyWebsite,
		},
		now:  time.Now,
		tmpl: template.Must(template.New("invoice").Funcs(template.FuncMap{"money": formatMoney}).Parse(invoiceTemplate)),
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string       `json:"invoice_number"`
	InvoiceDate   string       `json:"invoice_date"`
	Order         *order.Order `json:"order"`
	Company       CompanyInfo  `json:"company"`
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// InvoiceNumber derives the invoice number from the order number
func InvoiceNumber(o *order.Order) string {
	return "INV-" + strings.TrimPrefix(o.OrderNumber, "ORD-")
}

// GenerateInvoiceHTML renders the invoice as an HTML document
func (s *Service) GenerateInvoiceHTML(o *order.Order) ([]byte, error) {
	data := InvoiceData{
		InvoiceNumber: InvoiceNumber(o),
		InvoiceDate:   s.now().Format("January 2, 2006"),
		Order:         o,
		Company:       s.company,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateInvoice renders the invoice and converts it to PDF with wkhtmltopdf
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.GenerateInvoiceHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// formatMoney prints an amount with the narrow symbol of its currency,
// falling back to the ISO code when the code is unknown.
func formatMoney(code string, amount decimal.Decimal) string {
	symbol := code
	if unit, err := currency.ParseISO(code); err == nil {
		symbol = fmt.Sprint(currency.NarrowSymbol(unit))
	}
	if amount.IsNegative() {
		return "-" + symbol + amount.Abs().StringFixed(2)
	}
	return symbol + amount.StringFixed(2)
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; border-bottom: 2px solid #eee; padding-bottom: 20px; margin-bottom: 30px; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; }
        table.items { width: 100%; border-collapse: collapse; margin: 30px 0; }
        table.items th, table.items td { border: 1px solid #ddd; padding: 10px 8px; text-align: left; }
        table.items th { background-color: #f8f9fa; }
        .num { text-align: right; }
        .totals { float: right; width: 320px; }
        .totals td { padding: 6px 8px; border-bottom: 1px solid #eee; }
        .total-row td { font-size: 18px; font-weight: bold; border-top: 2px solid #333; }
        .footer { clear: both; margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Phone}}<p>Phone: {{.Company.Phone}}</p>{{end}}
            <p>Email: {{.Company.Email}}</p>
            {{if .Company.Website}}<p>{{.Company.Website}}</p>{{end}}
        </div>
        <div style="text-align: right;">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.Order.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.Order.CreatedAt.Format "January 2, 2006"}}</p>
            <p><strong>Status:</strong> {{.Order.Status}}</p>
        </div>
    </div>

    <div>
        <div class="section-title">Ship To:</div>
        <p><strong>{{.Order.CustomerName}}</strong></p>
        <p>{{.Order.ShippingAddress.AddressLine1}}</p>
        {{if .Order.ShippingAddress.AddressLine2}}<p>{{.Order.ShippingAddress.AddressLine2}}</p>{{end}}
        <p>{{.Order.ShippingAddress.City}}{{if .Order.ShippingAddress.State}}, {{.Order.ShippingAddress.State}}{{end}} {{.Order.ShippingAddress.PostalCode}}</p>
        <p>{{.Order.ShippingAddress.Country}}</p>
        {{if .Order.Phone}}<p>Phone: {{.Order.Phone}}</p>{{end}}
        <p>Email: {{.Order.Email}}</p>
    </div>

    {{$currency := .Order.Currency}}
    <table class="items">
        <thead>
            <tr>
                <th>Item</th>
                <th>Status</th>
                <th class="num">Qty</th>
                <th class="num">Price</th>
                <th class="num">Total</th>
            </tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td><strong>{{.Name}}</strong>{{if .Variant}}<br><small>{{.Variant}}</small>{{end}}</td>
                <td>{{.Status}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money $currency .UnitPrice}}</td>
                <td class="num">{{money $currency .TotalPrice}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td class="num">{{money $currency .Order.SubtotalAmount}}</td></tr>
            {{range .Order.Vouchers}}
            <tr><td>Voucher {{.Code}}:</td><td class="num">{{money $currency .DiscountAmount.Neg}}</td></tr>
            {{end}}
            <tr><td>Shipping:</td><td class="num">{{money $currency .Order.ShippingAmount}}</td></tr>
            <tr class="total-row"><td>Total:</td><td class="num">{{money $currency .Order.TotalAmount}}</td></tr>
        </table>
    </div>

    <div class="footer">
        <p>Thank you for your order!</p>
        <p>Questions about this invoice? Contact us at {{.Company.Email}}</p>
    </div>
</body>
</html>
`
