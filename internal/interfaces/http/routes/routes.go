// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/analytics"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/pdf"
)

// Services holds everything the routes are wired to
type Services struct {
	Carts    *cart.Registry
	Catalog  *catalog.Service
	Vouchers *voucher.Service
	Orders   *order.Service
	Checkout *checkout.Service
	Invoices *pdf.Service
	Sales    *analytics.Service
	Sellers  *auth.SellerAuthenticator
	Tokens   *auth.JWTManager
}

// SetupRoutes registers every API route on the /api/v1 group
func SetupRoutes(rg *gin.RouterGroup, svc Services, cfg *config.Config, log logrus.FieldLogger) {
	SetupProductRoutes(rg, svc)
	SetupVoucherRoutes(rg, svc)

	// Guest routes are keyed by the session cookie
	guest := rg.Group("")
	guest.Use(middleware.Session(cfg.Store.SessionCookieMaxAge, cfg.IsProduction()))
	SetupCartRoutes(guest, svc)
	SetupCheckoutRoutes(guest, svc)
	SetupOrderRoutes(guest, svc)

	SetupSellerRoutes(rg, svc, log)
}

// SetupProductRoutes sets up product related routes
func SetupProductRoutes(rg *gin.RouterGroup, svc Services) {
	productHandler := handlers.NewProductHandler(svc.Catalog)

	products := rg.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/slug/:slug", productHandler.GetProductBySlug)
	}
}

// SetupVoucherRoutes sets up the public voucher list
func SetupVoucherRoutes(rg *gin.RouterGroup, svc Services) {
	voucherHandler := handlers.NewVoucherHandler(svc.Vouchers)
	rg.GET("/vouchers", voucherHandler.GetAvailableVouchers)
}

// SetupCartRoutes sets up cart and selection routes
func SetupCartRoutes(rg *gin.RouterGroup, svc Services) {
	cartHandler := handlers.NewCartHandler(svc.Carts, svc.Catalog)

	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.DELETE("", cartHandler.ClearCart)

		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:lineID", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:lineID", cartHandler.RemoveFromCart)

		cart.POST("/selection/toggle/:lineID", cartHandler.ToggleSelection)
		cart.POST("/selection/all", cartHandler.SelectAll)
		cart.PUT("/selection", cartHandler.SetSelection)
		cart.DELETE("/selection", cartHandler.DeselectAll)
	}
}

// SetupCheckoutRoutes sets up checkout routes
func SetupCheckoutRoutes(rg *gin.RouterGroup, svc Services) {
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout)

	checkout := rg.Group("/checkout")
	{
		checkout.GET("/summary", checkoutHandler.GetSummary)
		checkout.POST("/vouchers", checkoutHandler.ApplyVoucher)
		checkout.DELETE("/vouchers/:id", checkoutHandler.RemoveVoucher)
		checkout.POST("/orders", checkoutHandler.PlaceOrder)
	}
}

// SetupOrderRoutes sets up the guest's order routes
func SetupOrderRoutes(rg *gin.RouterGroup, svc Services) {
	orderHandler := handlers.NewOrderHandler(svc.Orders, svc.Invoices)

	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/track/:number", orderHandler.TrackOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.GET("/:id/invoice", orderHandler.GetInvoice)
	}
}

// SetupSellerRoutes sets up seller login and the protected dashboard routes
func SetupSellerRoutes(rg *gin.RouterGroup, svc Services, log logrus.FieldLogger) {
	authHandler := handlers.NewAuthHandler(svc.Sellers)
	sellerHandler := handlers.NewSellerHandler(svc.Orders, svc.Vouchers, log)
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Sales)

	seller := rg.Group("/seller")
	seller.POST("/login", authHandler.Login)

	protected := seller.Group("")
	protected.Use(middleware.SellerAuth(svc.Tokens))
	{
		protected.GET("/orders", sellerHandler.GetOrders)
		protected.GET("/orders/:id", sellerHandler.GetOrder)
		protected.PUT("/orders/:id/items/:itemID/status", sellerHandler.UpdateItemStatus)

		protected.GET("/vouchers", sellerHandler.GetVouchers)
		protected.POST("/vouchers", sellerHandler.CreateVoucher)
		protected.PUT("/vouchers/:id/status", sellerHandler.UpdateVoucherStatus)

		protected.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
		protected.GET("/analytics/sales", analyticsHandler.GetSales)
	}
}
