package ports

import (
	"context"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// CatalogSort selects the ordering of a product listing.
type CatalogSort string

const (
	SortNewest    CatalogSort = "newest"
	SortPriceAsc  CatalogSort = "price_asc"
	SortPriceDesc CatalogSort = "price_desc"
)

// CatalogFilter carries the query parameters for listing products.
type CatalogFilter struct {
	Category string // empty = all categories
	Sort     CatalogSort
	Limit    int // capped at 100 by the service
}

// ProductUpdate carries the seller-editable product fields.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *int64
}

// CatalogRepository defines persistence for the product catalog.
type CatalogRepository interface {
	List(ctx context.Context, filter CatalogFilter) ([]*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, upd ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// CartRepository defines persistence for cart items.
type CartRepository interface {
	ItemsByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	// AddItem inserts the product into the user's cart, incrementing the
	// quantity when the line already exists.
	AddItem(ctx context.Context, userID, productID string, quantity int64) (*domain.CartItem, error)
	// RemoveItem deletes one cart line. Removing an already-removed item is
	// a no-op, not an error.
	RemoveItem(ctx context.Context, userID, itemID string) error
}

// OrderRepository reads completed orders. Inserts happen only inside the
// checkout transaction (CheckoutStore), never directly.
type OrderRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Order, error)
}

// CheckoutStore is the transactional boundary for the one hard concurrency
// invariant in this system: converting a cart into a balance deduction.
type CheckoutStore interface {
	// Commit atomically, in one storage transaction:
	//   1. deletes exactly the given cart item ids, conditioned on every one
	//      of them still existing at write time;
	//   2. deducts order.Total from the user's balance, conditioned on the
	//      balance covering it at write time;
	//   3. inserts the order record.
	// Returns the new balance. On a failed condition nothing is applied:
	// missing cart lines return domain.ErrEmptyCart, a short balance returns
	// domain.ErrInsufficientFunds. Two concurrent commits of the same cart
	// serialize at the store; exactly one wins even when the balance would
	// cover both.
	Commit(ctx context.Context, userID string, cartItemIDs []string, order *domain.Order) (int64, error)
}

// GameLogRepository persists earn-game plays for the history feed.
type GameLogRepository interface {
	Insert(ctx context.Context, log *domain.GameLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.GameLog, error)
}
