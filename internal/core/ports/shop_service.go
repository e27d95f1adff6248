package ports

import (
	"context"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// CreateProductInput carries all data needed to list a new product.
type CreateProductInput struct {
	SellerID    string
	Name        string
	Description string
	Price       int64
	Category    string
	ImageURL    string
}

// CartView is one cart line joined with its current product. Items whose
// product has been deleted from the catalog are dropped from the view.
type CartView struct {
	Item    domain.CartItem `json:"item"`
	Product *domain.Product `json:"product"`
}

// CheckoutResult is returned by a successful checkout.
type CheckoutResult struct {
	OrderID    string
	Total      int64
	NewBalance int64
}

// ShopService defines the marketplace use cases: catalog CRUD behind role
// checks, cart management, and the checkout transaction.
type ShopService interface {
	ListProducts(ctx context.Context, filter CatalogFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// CreateProduct requires the seller's role to be at least moderator
	// level; rejects with domain.ErrInsufficientRole otherwise.
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	// UpdateProduct is restricted to the product's seller.
	UpdateProduct(ctx context.Context, userID, productID string, upd ProductUpdate) (*domain.Product, error)
	// DeleteProduct is allowed for the seller or an owner-level role.
	DeleteProduct(ctx context.Context, userID string, role domain.Role, productID string) error

	GetBalance(ctx context.Context, userID string) (int64, error)
	GetCart(ctx context.Context, userID string) ([]CartView, error)
	AddToCart(ctx context.Context, userID, productID string) (*domain.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, itemID string) error

	// Checkout snapshots the cart, totals it at current prices, and commits
	// the deduction + cart clear + order insert atomically. Returns
	// domain.ErrEmptyCart or domain.ErrInsufficientFunds with no side
	// effects on the failure paths.
	Checkout(ctx context.Context, userID string) (*CheckoutResult, error)

	// ListOrders returns the user's completed orders, newest first.
	ListOrders(ctx context.Context, userID string, limit int) ([]*domain.Order, error)
}
