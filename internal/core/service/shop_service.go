package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

const (
	defaultCatalogLimit = 50
	maxCatalogLimit     = 100
)

// BalanceCache abstracts the short-TTL balance read cache (Redis). A miss or
// cache failure falls through to the store; mutations invalidate.
type BalanceCache interface {
	Get(ctx context.Context, userID string) (int64, bool, error)
	Set(ctx context.Context, userID string, balance int64) error
	Invalidate(ctx context.Context, userID string) error
}

type shopService struct {
	catalog  ports.CatalogRepository
	cart     ports.CartRepository
	checkout ports.CheckoutStore
	orders   ports.OrderRepository
	profiles ports.ProfileRepository
	balances BalanceCache
	log      zerolog.Logger
}

// NewShopService returns a ShopService implementation.
func NewShopService(
	catalog ports.CatalogRepository,
	cart ports.CartRepository,
	checkout ports.CheckoutStore,
	orders ports.OrderRepository,
	profiles ports.ProfileRepository,
	balances BalanceCache,
	log zerolog.Logger,
) ports.ShopService {
	return &shopService{
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		orders:   orders,
		profiles: profiles,
		balances: balances,
		log:      log,
	}
}

func (s *shopService) ListProducts(ctx context.Context, filter ports.CatalogFilter) ([]*domain.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultCatalogLimit
	}
	if filter.Limit > maxCatalogLimit {
		filter.Limit = maxCatalogLimit
	}
	switch filter.Sort {
	case ports.SortNewest, ports.SortPriceAsc, ports.SortPriceDesc:
	default:
		filter.Sort = ports.SortNewest
	}
	return s.catalog.List(ctx, filter)
}

func (s *shopService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrProductNotFound
	}
	return s.catalog.FindByID(ctx, id)
}

func (s *shopService) CreateProduct(ctx context.Context, input ports.CreateProductInput) (*domain.Product, error) {
	if strings.TrimSpace(input.Name) == "" || input.Price < 0 {
		return nil, domain.ErrInvalidProduct
	}

	seller, err := s.profiles.FindByUserID(ctx, input.SellerID)
	if err != nil {
		return nil, err
	}
	if !seller.Role.HasMinimumLevel(domain.LevelModerator) {
		s.log.Debug().
			Str("seller_id", input.SellerID).
			Str("role", string(seller.Role)).
			Msg("product creation denied")
		return nil, domain.ErrInsufficientRole
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		// listed price shown struck through in the shop
		OriginalPrice: input.Price * 12 / 10,
		ImageURL:      input.ImageURL,
		Category:      input.Category,
		SellerID:      input.SellerID,
		SellerName:    seller.DisplayName,
		Status:        domain.ProductActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.catalog.Create(ctx, product)
	if err != nil {
		s.log.Error().Err(err).Str("seller_id", input.SellerID).Msg("failed to create product")
		return nil, err
	}
	s.log.Info().Str("product_id", created.ID).Str("seller_id", input.SellerID).Msg("product created")
	return created, nil
}

func (s *shopService) UpdateProduct(ctx context.Context, userID, productID string, upd ports.ProductUpdate) (*domain.Product, error) {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != userID {
		return nil, domain.ErrNotSeller
	}
	if upd.Price != nil && *upd.Price < 0 {
		return nil, domain.ErrInvalidProduct
	}
	return s.catalog.Update(ctx, productID, upd)
}

func (s *shopService) DeleteProduct(ctx context.Context, userID string, role domain.Role, productID string) error {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	// The seller may retire their own listing; otherwise only the top rank.
	if product.SellerID != userID && !role.IsOwner() {
		return domain.ErrInsufficientRole
	}
	if err := s.catalog.Delete(ctx, productID); err != nil {
		return err
	}
	s.log.Info().Str("product_id", productID).Str("deleted_by", userID).Msg("product deleted")
	return nil
}

func (s *shopService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if s.balances != nil {
		if balance, ok, err := s.balances.Get(ctx, userID); err == nil && ok {
			return balance, nil
		}
	}

	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.balances != nil {
		if err := s.balances.Set(ctx, userID, profile.Balance); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache set failed")
		}
	}
	return profile.Balance, nil
}

// GetCart joins cart lines with their current products. Lines whose product
// has been removed from the catalog are skipped, mirroring how the cart page
// filters dead items.
func (s *shopService) GetCart(ctx context.Context, userID string) ([]ports.CartView, error) {
	items, err := s.cart.ItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ports.CartView, 0, len(items))
	for _, item := range items {
		product, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		views = append(views, ports.CartView{Item: item, Product: product})
	}
	return views, nil
}

func (s *shopService) AddToCart(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	// Validate against the catalog before touching the cart.
	if _, err := s.catalog.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.cart.AddItem(ctx, userID, productID, 1)
}

func (s *shopService) RemoveFromCart(ctx context.Context, userID, itemID string) error {
	return s.cart.RemoveItem(ctx, userID, itemID)
}

// Checkout converts the cart into a balance deduction. The total is computed
// from current catalog prices, not the prices at add-to-cart time. The cart
// clear, deduction, and order insert commit together or not at all; the store
// re-checks at write time that the snapshotted lines still exist and the
// balance still covers the total, so a concurrent checkout of the same cart
// loses cleanly even when the balance would cover both.
func (s *shopService) Checkout(ctx context.Context, userID string) (*ports.CheckoutResult, error) {
	items, err := s.cart.ItemsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load cart: %w", err)
	}

	var (
		total      int64
		orderItems []domain.OrderItem
		itemIDs    []string
	)
	for _, item := range items {
		product, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				// dead line: clear it with the rest but charge nothing
				itemIDs = append(itemIDs, item.ID)
				continue
			}
			return nil, fmt.Errorf("checkout: load product %s: %w", item.ProductID, err)
		}
		total += product.Price * item.Quantity
		itemIDs = append(itemIDs, item.ID)
		orderItems = append(orderItems, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
	}

	if len(orderItems) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Early sufficiency check for a friendly error; the store re-checks the
	// condition atomically at commit, so this read is advisory only.
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Balance < total {
		return nil, domain.ErrInsufficientFunds
	}

	order := &domain.Order{
		UserID:    userID,
		Items:     orderItems,
		Total:     total,
		Status:    "completed",
		CreatedAt: time.Now().UTC(),
	}

	newBalance, err := s.checkout.Commit(ctx, userID, itemIDs, order)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrEmptyCart) {
			s.log.Info().Str("user_id", userID).Int64("total", total).Msg("checkout lost commit race")
		} else {
			s.log.Error().Err(err).Str("user_id", userID).Msg("checkout commit failed")
		}
		return nil, err
	}

	if s.balances != nil {
		if err := s.balances.Invalidate(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("balance cache invalidation failed")
		}
	}

	s.log.Info().
		Str("user_id", userID).
		Str("order_id", order.ID).
		Int64("total", total).
		Int64("new_balance", newBalance).
		Msg("checkout completed")

	return &ports.CheckoutResult{OrderID: order.ID, Total: total, NewBalance: newBalance}, nil
}

func (s *shopService) ListOrders(ctx context.Context, userID string, limit int) ([]*domain.Order, error) {
	if limit <= 0 || limit > maxCatalogLimit {
		limit = defaultCatalogLimit
	}
	return s.orders.ListByUser(ctx, userID, limit)
}
