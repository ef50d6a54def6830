// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
)

// ProductResolver turns a product id and variant into what the cart stores
type ProductResolver interface {
	Resolve(ctx context.Context, productID, variant string) (cart.Product, error)
}

// CartHandler handles the guest cart and its checkout selection
type CartHandler struct {
	carts    *cart.Registry
	products ProductResolver
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Registry, products ProductResolver) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Variant   string `json:"variant" binding:"max=100"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=999"`
}

// UpdateCartItemRequest represents a quantity change; zero removes the line
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=999"`
}

// SetSelectionRequest replaces the checkout selection
type SetSelectionRequest struct {
	LineIDs []string `json:"line_ids" binding:"required"`
}

// CartLine is one cart line as the cart page shows it
type CartLine struct {
	cart.CartItem
	LineID    cart.LineID     `json:"line_id"`
	LineTotal decimal.Decimal `json:"line_total"`
	Selected  bool            `json:"selected"`
}

// CartResponse represents the cart page
type CartResponse struct {
	Items  []CartLine      `json:"items"`
	Totals cart.CartTotals `json:"totals"`
}

func newCartResponse(store *cart.Store) CartResponse {
	snap, totals := store.View()
	response := CartResponse{
		Items:  []CartLine{},
		Totals: totals,
	}
	if snap.Cart == nil {
		return response
	}

	selected := make(map[cart.LineID]bool, len(snap.Selected))
	for _, id := range snap.Selected {
		selected[id] = true
	}
	for _, item := range snap.Cart.Items {
		response.Items = append(response.Items, CartLine{
			CartItem:  item,
			LineID:    item.LineID(),
			LineTotal: item.LineTotal(),
			Selected:  selected[item.LineID()],
		})
	}
	return response
}

// store returns the session's cart store, writing the error response on failure
func (h *CartHandler) store(c *gin.Context) (*cart.Store, bool) {
	store, err := h.carts.Get(c.Request.Context(), middleware.GetSessionID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return store, true
}

func (h *CartHandler) respondCart(c *gin.Context, store *cart.Store, message string) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    newCartResponse(store),
	})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	h.respondCart(c, store, "Cart retrieved successfully")
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	totals := store.Totals()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count":    totals.TotalQuantity,
			"lines":    totals.ItemCount,
			"selected": totals.SelectedCount,
		},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	product, err := h.products.Resolve(ctx, req.ProductID, req.Variant)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := store.AddToCart(ctx, product, req.Quantity, req.Variant); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "Item added to cart successfully")
}

// UpdateCartItem handles PUT /cart/items/:lineID
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.UpdateQuantity(c.Request.Context(), cart.LineID(c.Param("lineID")), *req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "Cart item updated successfully")
}

// RemoveFromCart handles DELETE /cart/items/:lineID
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.RemoveFromCart(c.Request.Context(), cart.LineID(c.Param("lineID"))); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "Item removed from cart successfully")
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.ClearCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "Cart cleared successfully")
}

// ToggleSelection handles POST /cart/selection/toggle/:lineID
func (h *CartHandler) ToggleSelection(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.ToggleItemSelection(c.Request.Context(), cart.LineID(c.Param("lineID"))); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "Selection updated successfully")
}

// SelectAll handles POST /cart/selection/all
func (h *CartHandler) SelectAll(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.SelectAllItems(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "All items selected")
}

// DeselectAll handles DELETE /cart/selection
func (h *CartHandler) DeselectAll(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.DeselectAllItems(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "All items deselected")
}

// SetSelection handles PUT /cart/selection
func (h *CartHandler) SetSelection(c *gin.Context) {
	var req SetSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	ids := make([]cart.LineID, 0, len(req.LineIDs))
	for _, id := range req.LineIDs {
		ids = append(ids, cart.LineID(id))
	}
	if err := store.SetSelectedItems(c.Request.Context(), ids); err != nil {
		respondError(c, err)
		return
	}

	h.respondCart(c, store, "Selection updated successfully")
}
