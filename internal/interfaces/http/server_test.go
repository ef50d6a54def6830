package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/analytics"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/infrastructure/database/sqlstore"
	"github.com/your-org/storefront/internal/infrastructure/kv"
	"github.com/your-org/storefront/internal/infrastructure/persistence"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pdf"
	"golang.org/x/crypto/bcrypt"
)

const sellerPassword = "Dashboard2026"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope[T any] struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    T      `json:"data"`
}

type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
	token  string
}

func (c *testClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(sellerPassword), bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		App:      config.AppConfig{Name: "Storefront", Environment: "test", CompanyName: "Storefront Ltd."},
		Server:   config.ServerConfig{Port: "0", RequestTimeout: 10 * time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"},
		Store: config.StoreConfig{
			Currency:            "USD",
			ShippingFee:         decimal.NewFromInt(5),
			SessionCookieMaxAge: 3600,
		},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
		Seller: config.SellerConfig{Email: "seller@example.com", PasswordHash: string(hash)},
		Security: config.SecurityConfig{
			RateLimitPerMinute: 100,
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig(t)
	log := logger.Discard()

	db, err := sqlstore.NewConnection(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	migration := sqlstore.NewMigration(db.GetDB(), log)
	require.NoError(t, migration.RunAutoMigrations())
	require.NoError(t, migration.SeedInitialData())

	store := kv.NewMemoryStore()
	carts := cart.NewRegistry(persistence.CartPersisterFactory(store, log), log)
	vouchers := voucher.NewService(db.GetDB(), log)
	orders := order.NewService(db.GetDB(), log)
	tokens := auth.NewJWTManager(cfg)

	srv, err := NewServer(cfg, Dependencies{
		Services: routes.Services{
			Carts:    carts,
			Catalog:  catalog.NewService(db.GetDB()),
			Vouchers: vouchers,
			Orders:   orders,
			Checkout: checkout.NewService(carts, vouchers, persistence.NewVoucherSelection(store, log), orders, cfg.Store, log),
			Invoices: pdf.NewService(cfg),
			Sales:    analytics.NewService(db.GetDB()),
			Sellers:  auth.NewSellerAuthenticator(cfg, auth.NewPasswordManager(bcrypt.MinCost), tokens),
			Tokens:   tokens,
		},
		Database: db,
	}, log)
	require.NoError(t, err)
	return srv
}

func newClient(t *testing.T, srv *Server) *testClient {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: ts.URL, client: &http.Client{Jar: jar}}
}

func findProduct(t *testing.T, c *testClient, search string) catalog.Product {
	t.Helper()
	var res envelope[catalog.ProductResponse]
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/products?search="+url.QueryEscape(search), nil, &res))
	require.Len(t, res.Data.Products, 1)
	return res.Data.Products[0]
}

type cartBody struct {
	Items []struct {
		LineID   string `json:"line_id"`
		Quantity int    `json:"quantity"`
		Selected bool   `json:"selected"`
	} `json:"items"`
	Totals cart.CartTotals `json:"totals"`
}

func TestServer_GuestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	shopper := newClient(t, srv)

	mug := findProduct(t, shopper, "mug")
	lamp := findProduct(t, shopper, "lamp")

	var cartRes envelope[cartBody]
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/cart/items",
		gin.H{"product_id": mug.ID, "variant": "sand", "quantity": 2}, &cartRes))
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/cart/items",
		gin.H{"product_id": lamp.ID, "quantity": 1}, &cartRes))
	require.Len(t, cartRes.Data.Items, 2)
	assert.Equal(t, 3, cartRes.Data.Totals.TotalQuantity)
	assert.True(t, cartRes.Data.Totals.AllSelected)
	assert.Equal(t, "59.9", cartRes.Data.Totals.SubTotal.String())

	// keep the lamp in the cart but out of this order
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/cart/selection/toggle/"+lamp.ID, nil, &cartRes))
	assert.Equal(t, 1, cartRes.Data.Totals.SelectedCount)
	assert.Equal(t, "25", cartRes.Data.Totals.SelectedTotal.String())

	var summary envelope[checkout.Summary]
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/checkout/vouchers", gin.H{"code": "welcome10"}, &summary))
	assert.Equal(t, "25", summary.Data.Pricing.Subtotal.String())
	assert.Equal(t, "2.5", summary.Data.Pricing.DiscountAmount.String())
	assert.Equal(t, "5", summary.Data.Pricing.ShippingFee.String())
	assert.Equal(t, "27.5", summary.Data.Pricing.TotalAmount.String())

	var placed envelope[order.Order]
	require.Equal(t, http.StatusCreated, shopper.do(http.MethodPost, "/api/v1/checkout/orders", gin.H{
		"email":         "ada@example.com",
		"customer_name": "Ada Lovelace",
		"shipping_address": gin.H{
			"address_line1": "1 Analytical Way",
			"city":          "London",
			"postal_code":   "N1 1AA",
			"country":       "GB",
		},
	}, &placed))
	assert.Equal(t, order.StatusPending, placed.Data.Status)
	assert.True(t, placed.Data.TotalAmount.Equal(decimal.RequireFromString("27.5")))
	require.Len(t, placed.Data.Items, 1)
	require.Len(t, placed.Data.Vouchers, 1)

	// only the unselected lamp is left
	require.Equal(t, http.StatusOK, shopper.do(http.MethodGet, "/api/v1/cart", nil, &cartRes))
	require.Len(t, cartRes.Data.Items, 1)
	assert.Equal(t, lamp.ID, cartRes.Data.Items[0].LineID)
	assert.False(t, cartRes.Data.Items[0].Selected)

	var list envelope[order.OrderResponse]
	require.Equal(t, http.StatusOK, shopper.do(http.MethodGet, "/api/v1/orders", nil, &list))
	require.Len(t, list.Data.Orders, 1)

	status := shopper.do(http.MethodGet, "/api/v1/orders/track/"+placed.Data.OrderNumber+"?email=ADA@example.com", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	status = shopper.do(http.MethodGet, "/api/v1/orders/track/"+placed.Data.OrderNumber+"?email=eve@example.com", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// another session cannot see the order
	stranger := newClient(t, srv)
	assert.Equal(t, http.StatusNotFound, stranger.do(http.MethodGet, "/api/v1/orders/"+placed.Data.ID, nil, nil))

	// seller confirms the item, the customer then cancels
	seller := newClient(t, srv)
	var login envelope[struct {
		AccessToken string `json:"access_token"`
	}]
	require.Equal(t, http.StatusOK, seller.do(http.MethodPost, "/api/v1/seller/login",
		gin.H{"email": "seller@example.com", "password": sellerPassword}, &login))
	seller.token = login.Data.AccessToken

	var updated envelope[order.Order]
	itemPath := "/api/v1/seller/orders/" + placed.Data.ID + "/items/" + placed.Data.Items[0].ID + "/status"
	require.Equal(t, http.StatusOK, seller.do(http.MethodPut, itemPath, gin.H{"status": "confirmed"}, &updated))
	assert.Equal(t, order.StatusConfirmed, updated.Data.Status)
	assert.Equal(t, http.StatusConflict, seller.do(http.MethodPut, itemPath, gin.H{"status": "delivered"}, nil))
	assert.Equal(t, http.StatusBadRequest, seller.do(http.MethodPut, itemPath, gin.H{"status": "lost"}, nil))

	var cancelled envelope[order.Order]
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/orders/"+placed.Data.ID+"/cancel",
		gin.H{"reason": "changed my mind"}, &cancelled))
	assert.Equal(t, order.StatusCancelled, cancelled.Data.Status)

	var stats envelope[analytics.DashboardStats]
	require.Equal(t, http.StatusOK, seller.do(http.MethodGet, "/api/v1/seller/analytics/dashboard", nil, &stats))
	assert.Equal(t, int64(1), stats.Data.TotalOrders)
	assert.True(t, stats.Data.TotalRevenue.IsZero())
	require.Len(t, stats.Data.OrdersByStatus, 1)
	assert.Equal(t, order.StatusCancelled, stats.Data.OrdersByStatus[0].Status)
	require.Len(t, stats.Data.VoucherUsage, 1)
	assert.Equal(t, "WELCOME10", stats.Data.VoucherUsage[0].Code)
}

func TestServer_CheckoutErrors(t *testing.T) {
	srv := newTestServer(t)
	shopper := newClient(t, srv)

	var res envelope[any]
	assert.Equal(t, http.StatusUnprocessableEntity, shopper.do(http.MethodPost, "/api/v1/checkout/vouchers", gin.H{"code": "WELCOME10"}, &res))
	assert.Equal(t, checkout.ErrNoItemsSelected.Error(), res.Error)

	mug := findProduct(t, shopper, "mug")
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/cart/items",
		gin.H{"product_id": mug.ID, "quantity": 1}, nil))

	tests := []struct {
		name   string
		code   string
		status int
	}{
		{name: "unknown code: error", code: "NOPE", status: http.StatusNotFound},
		{name: "minimum not met: error", code: "SAVE5", status: http.StatusUnprocessableEntity},
		{name: "free shipping: ok", code: "FREESHIP", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, shopper.do(http.MethodPost, "/api/v1/checkout/vouchers", gin.H{"code": tt.code}, nil))
		})
	}

	assert.Equal(t, http.StatusNotFound, shopper.do(http.MethodPost, "/api/v1/cart/items",
		gin.H{"product_id": mug.ID, "variant": "plaid", "quantity": 1}, nil))
	assert.Equal(t, http.StatusBadRequest, shopper.do(http.MethodPost, "/api/v1/cart/items",
		gin.H{"product_id": mug.ID, "quantity": 0}, nil))
	assert.Equal(t, http.StatusBadRequest, shopper.do(http.MethodPost, "/api/v1/checkout/orders",
		gin.H{"email": "not-an-email"}, nil))
}

func TestServer_CartLines(t *testing.T) {
	srv := newTestServer(t)
	shopper := newClient(t, srv)
	tee := findProduct(t, shopper, "t-shirt")

	var cartRes envelope[cartBody]
	for _, variant := range []string{"m", "xxl"} {
		require.Equal(t, http.StatusOK, shopper.do(http.MethodPost, "/api/v1/cart/items",
			gin.H{"product_id": tee.ID, "variant": variant, "quantity": 1}, &cartRes))
	}
	require.Len(t, cartRes.Data.Items, 2)
	assert.Equal(t, "51", cartRes.Data.Totals.SubTotal.String())

	xxl := url.PathEscape(string(cart.NewLineID(tee.ID, "xxl")))
	require.Equal(t, http.StatusOK, shopper.do(http.MethodPut, "/api/v1/cart/items/"+xxl, gin.H{"quantity": 3}, &cartRes))
	assert.Equal(t, "105", cartRes.Data.Totals.SubTotal.String())

	require.Equal(t, http.StatusOK, shopper.do(http.MethodDelete, "/api/v1/cart/selection", nil, &cartRes))
	assert.Equal(t, 0, cartRes.Data.Totals.SelectedCount)

	require.Equal(t, http.StatusOK, shopper.do(http.MethodPut, "/api/v1/cart/selection",
		gin.H{"line_ids": []string{string(cart.NewLineID(tee.ID, "m")), "ghost"}}, &cartRes))
	assert.Equal(t, 1, cartRes.Data.Totals.SelectedCount)

	require.Equal(t, http.StatusOK, shopper.do(http.MethodPut, "/api/v1/cart/items/"+xxl, gin.H{"quantity": 0}, &cartRes))
	require.Len(t, cartRes.Data.Items, 1)

	require.Equal(t, http.StatusOK, shopper.do(http.MethodDelete, "/api/v1/cart", nil, &cartRes))
	assert.Empty(t, cartRes.Data.Items)
	assert.False(t, cartRes.Data.Totals.AllSelected)
}

func TestServer_SellerRoutes(t *testing.T) {
	srv := newTestServer(t)
	seller := newClient(t, srv)

	assert.Equal(t, http.StatusUnauthorized, seller.do(http.MethodGet, "/api/v1/seller/orders", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, seller.do(http.MethodPost, "/api/v1/seller/login",
		gin.H{"email": "seller@example.com", "password": "wrong"}, nil))

	var login envelope[struct {
		AccessToken string `json:"access_token"`
	}]
	require.Equal(t, http.StatusOK, seller.do(http.MethodPost, "/api/v1/seller/login",
		gin.H{"email": "seller@example.com", "password": sellerPassword}, &login))
	seller.token = login.Data.AccessToken

	start := time.Now().UTC().Add(-time.Hour)
	var created envelope[voucher.Voucher]
	require.Equal(t, http.StatusCreated, seller.do(http.MethodPost, "/api/v1/seller/vouchers", gin.H{
		"code":       "spring15",
		"type":       "percentage",
		"discount":   "15",
		"start_date": start,
		"end_date":   start.AddDate(0, 1, 0),
	}, &created))
	assert.Equal(t, "SPRING15", created.Data.Code)

	assert.Equal(t, http.StatusConflict, seller.do(http.MethodPost, "/api/v1/seller/vouchers", gin.H{
		"code": "SPRING15", "type": "percentage", "discount": "15",
		"start_date": start, "end_date": start.AddDate(0, 1, 0),
	}, nil))
	assert.Equal(t, http.StatusBadRequest, seller.do(http.MethodPost, "/api/v1/seller/vouchers", gin.H{
		"code": "BOGO", "type": "bogo", "start_date": start, "end_date": start.AddDate(0, 1, 0),
	}, nil))
	assert.Equal(t, http.StatusBadRequest, seller.do(http.MethodPost, "/api/v1/seller/vouchers", gin.H{
		"code": "HALF", "type": "percentage", "discount": "150", "start_date": start, "end_date": start.AddDate(0, 1, 0),
	}, nil))

	require.Equal(t, http.StatusOK, seller.do(http.MethodPut, "/api/v1/seller/vouchers/"+created.Data.ID+"/status",
		gin.H{"status": "inactive"}, nil))

	var public envelope[[]voucher.Voucher]
	require.Equal(t, http.StatusOK, seller.do(http.MethodGet, "/api/v1/vouchers", nil, &public))
	for _, v := range public.Data {
		assert.NotEqual(t, "SPRING15", v.Code)
	}
}

type failingCheck struct{}

func (failingCheck) Health(context.Context) error { return errors.New("down") }

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t, srv)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", nil, nil))
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/ready", nil, nil))

	down := newTestServer(t)
	down.deps.RedisHealth = failingCheck{}
	assert.Equal(t, http.StatusServiceUnavailable, newClient(t, down).do(http.MethodGet, "/health", nil, nil))
}
