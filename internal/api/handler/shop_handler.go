package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/linhthach/sanctum/internal/api/metrics"
	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// ShopHandler exposes the catalog, cart, balance, and checkout endpoints.
type ShopHandler struct {
	shop ports.ShopService
}

func NewShopHandler(shop ports.ShopService) *ShopHandler {
	return &ShopHandler{shop: shop}
}

// ListProducts handles GET /shop/products.
// Query params: category, sort (newest|price_asc|price_desc), limit.
func (h *ShopHandler) ListProducts(c echo.Context) error {
	filter := ports.CatalogFilter{
		Category: c.QueryParam("category"),
		Sort:     ports.CatalogSort(c.QueryParam("sort")),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}

	products, err := h.shop.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /shop/products/:id.
func (h *ShopHandler) GetProduct(c echo.Context) error {
	product, err := h.shop.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

type createProductRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required,min=1,max=60"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// CreateProduct handles POST /shop/products.
func (h *ShopHandler) CreateProduct(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.shop.CreateProduct(c.Request().Context(), ports.CreateProductInput{
		SellerID:    profile.UserID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

type updateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Price       *int64  `json:"price" validate:"omitempty,gt=0"`
}

// UpdateProduct handles PATCH /shop/products/:id.
func (h *ShopHandler) UpdateProduct(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.shop.UpdateProduct(c.Request().Context(), profile.UserID, c.Param("id"), ports.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /shop/products/:id.
func (h *ShopHandler) DeleteProduct(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := h.shop.DeleteProduct(c.Request().Context(), profile.UserID, profile.Role, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Balance handles GET /shop/balance.
func (h *ShopHandler) Balance(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	balance, err := h.shop.GetBalance(c.Request().Context(), profile.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"balance": balance})
}

// GetCart handles GET /shop/cart.
func (h *ShopHandler) GetCart(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	items, err := h.shop.GetCart(c.Request().Context(), profile.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// AddToCart handles POST /shop/cart.
func (h *ShopHandler) AddToCart(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.shop.AddToCart(c.Request().Context(), profile.UserID, req.ProductID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// RemoveFromCart handles DELETE /shop/cart/:itemId. Idempotent.
func (h *ShopHandler) RemoveFromCart(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	if err := h.shop.RemoveFromCart(c.Request().Context(), profile.UserID, c.Param("itemId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Checkout handles POST /shop/checkout.
func (h *ShopHandler) Checkout(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	result, err := h.shop.Checkout(c.Request().Context(), profile.UserID)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(checkoutOutcome(err)).Inc()
		return err
	}

	metrics.CheckoutsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, map[string]any{
		"order_id":    result.OrderID,
		"total":       result.Total,
		"new_balance": result.NewBalance,
	})
}

// ListOrders handles GET /shop/orders. Optional ?limit.
func (h *ShopHandler) ListOrders(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
	}

	orders, err := h.shop.ListOrders(c.Request().Context(), profile.UserID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrCheckoutConflict):
		return "conflict"
	default:
		return "error"
	}
}
