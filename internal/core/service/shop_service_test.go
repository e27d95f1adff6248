package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubCatalogRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	nextID   int
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{products: make(map[string]*domain.Product)}
}

func (r *stubCatalogRepo) put(p *domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.products[p.ID] = &clone
}

func (r *stubCatalogRepo) List(_ context.Context, f ports.CatalogFilter) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		clone := *p
		out = append(out, &clone)
		if len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubCatalogRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *p
	clone.ID = fmt.Sprintf("prod-%d", r.nextID)
	r.products[clone.ID] = &clone
	result := clone
	return &result, nil
}

func (r *stubCatalogRepo) Update(_ context.Context, id string, upd ports.ProductUpdate) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	clone := *p
	return &clone, nil
}

func (r *stubCatalogRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

type stubCartRepo struct {
	mu     sync.Mutex
	items  map[string]domain.CartItem // keyed by item ID
	nextID int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: make(map[string]domain.CartItem)}
}

func (r *stubCartRepo) ItemsByUser(_ context.Context, userID string) ([]domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CartItem
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *stubCartRepo) AddItem(_ context.Context, userID, productID string, quantity int64) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		if item.UserID == userID && item.ProductID == productID {
			item.Quantity += quantity
			r.items[id] = item
			return &item, nil
		}
	}
	r.nextID++
	item := domain.CartItem{
		ID:        fmt.Sprintf("cart-%d", r.nextID),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: time.Now().UTC(),
	}
	r.items[item.ID] = item
	return &item, nil
}

func (r *stubCartRepo) RemoveItem(_ context.Context, userID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if ok && item.UserID == userID {
		delete(r.items, itemID)
	}
	return nil
}

func (r *stubCartRepo) has(userID, itemID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	return ok && item.UserID == userID
}

// stubCheckoutStore re-checks both commit conditions under its lock the way
// the real transaction does: every snapshotted cart line must still exist and
// the balance must still cover the total. Concurrent commits serialize here.
type stubCheckoutStore struct {
	profiles *stubProfileRepo
	cart     *stubCartRepo
	orders   []*domain.Order
	mu       sync.Mutex
}

func (s *stubCheckoutStore) Commit(ctx context.Context, userID string, cartItemIDs []string, order *domain.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(cartItemIDs) == 0 {
		return 0, domain.ErrEmptyCart
	}
	for _, id := range cartItemIDs {
		if !s.cart.has(userID, id) {
			return 0, domain.ErrEmptyCart
		}
	}
	newBalance, err := s.profiles.AdjustBalance(ctx, userID, order.Total, 0)
	if err != nil {
		return 0, err
	}
	for _, id := range cartItemIDs {
		_ = s.cart.RemoveItem(ctx, userID, id)
	}
	order.ID = fmt.Sprintf("order-%d", len(s.orders)+1)
	s.orders = append(s.orders, order)
	return newBalance, nil
}

type stubOrderRepo struct {
	store *stubCheckoutStore
}

func (r *stubOrderRepo) ListByUser(_ context.Context, userID string, limit int) ([]*domain.Order, error) {
	var out []*domain.Order
	for i := len(r.store.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if r.store.orders[i].UserID == userID {
			out = append(out, r.store.orders[i])
		}
	}
	return out, nil
}

type stubBalanceCache struct {
	mu          sync.Mutex
	values      map[string]int64
	gets        int
	hits        int
	invalidated int
}

func newStubBalanceCache() *stubBalanceCache {
	return &stubBalanceCache{values: make(map[string]int64)}
}

func (c *stubBalanceCache) Get(_ context.Context, userID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.values[userID]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *stubBalanceCache) Set(_ context.Context, userID string, balance int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[userID] = balance
	return nil
}

func (c *stubBalanceCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	delete(c.values, userID)
	return nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type shopFixture struct {
	svc      ports.ShopService
	catalog  *stubCatalogRepo
	cart     *stubCartRepo
	checkout *stubCheckoutStore
	profiles *stubProfileRepo
	cache    *stubBalanceCache
}

func newShopFixture() *shopFixture {
	catalog := newStubCatalogRepo()
	cart := newStubCartRepo()
	profiles := newStubProfileRepo()
	checkout := &stubCheckoutStore{profiles: profiles, cart: cart}
	orders := &stubOrderRepo{store: checkout}
	cache := newStubBalanceCache()
	return &shopFixture{
		svc:      NewShopService(catalog, cart, checkout, orders, profiles, cache, discardLogger),
		catalog:  catalog,
		cart:     cart,
		checkout: checkout,
		profiles: profiles,
		cache:    cache,
	}
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestShopService_CreateProduct_RequiresModeratorLevel(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Role: domain.RoleAdvanced})

	_, err := f.svc.CreateProduct(context.Background(), ports.CreateProductInput{
		SellerID: "u", Name: "Sticker", Price: 100,
	})
	if !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole for advanced seller, got %v", err)
	}
}

func TestShopService_CreateProduct_SetsOriginalPriceMarkup(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "mod", DisplayName: "Mod", Role: domain.RoleModerator})

	p, err := f.svc.CreateProduct(context.Background(), ports.CreateProductInput{
		SellerID: "mod", Name: "Badge", Price: 1000, Category: "cosmetic",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.OriginalPrice != 1200 {
		t.Errorf("original price = %d, want 1200", p.OriginalPrice)
	}
	if p.SellerName != "Mod" {
		t.Errorf("seller name = %q, want Mod", p.SellerName)
	}
	if p.Status != domain.ProductActive {
		t.Errorf("status = %q, want active", p.Status)
	}
}

func TestShopService_UpdateProduct_SellerOnly(t *testing.T) {
	f := newShopFixture()
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", SellerID: "seller", Price: 100})

	newName := "Renamed"
	_, err := f.svc.UpdateProduct(context.Background(), "intruder", "p1", ports.ProductUpdate{Name: &newName})
	if !errors.Is(err, domain.ErrNotSeller) {
		t.Fatalf("expected ErrNotSeller, got %v", err)
	}

	updated, err := f.svc.UpdateProduct(context.Background(), "seller", "p1", ports.ProductUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", updated.Name)
	}
}

func TestShopService_DeleteProduct_SellerOrOwner(t *testing.T) {
	f := newShopFixture()
	f.catalog.put(&domain.Product{ID: "p1", SellerID: "seller"})
	f.catalog.put(&domain.Product{ID: "p2", SellerID: "seller"})

	if err := f.svc.DeleteProduct(context.Background(), "stranger", domain.RoleModerator, "p1"); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("moderator must not delete another seller's product, got %v", err)
	}
	if err := f.svc.DeleteProduct(context.Background(), "seller", domain.RoleBasic, "p1"); err != nil {
		t.Fatalf("seller delete failed: %v", err)
	}
	if err := f.svc.DeleteProduct(context.Background(), "admin", domain.RoleOwner, "p2"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Balance cache
// ---------------------------------------------------------------------------

func TestShopService_GetBalance_CacheAside(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 777})

	// miss → store read → cache fill
	balance, err := f.svc.GetBalance(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 777 {
		t.Errorf("balance = %d, want 777", balance)
	}
	if f.cache.hits != 0 {
		t.Errorf("first read must miss the cache, hits = %d", f.cache.hits)
	}

	// hit
	if _, err := f.svc.GetBalance(context.Background(), "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.hits != 1 {
		t.Errorf("second read must hit the cache, hits = %d", f.cache.hits)
	}
	if f.profiles.findCalls != 1 {
		t.Errorf("store must be read once, got %d", f.profiles.findCalls)
	}
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

func TestShopService_AddToCart_IncrementsExistingLine(t *testing.T) {
	f := newShopFixture()
	f.catalog.put(&domain.Product{ID: "p1", Price: 50})

	first, err := f.svc.AddToCart(context.Background(), "u", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.AddToCart(context.Background(), "u", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("same product must reuse the line, got %s and %s", first.ID, second.ID)
	}
	if second.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", second.Quantity)
	}
}

func TestShopService_AddToCart_UnknownProduct(t *testing.T) {
	f := newShopFixture()

	_, err := f.svc.AddToCart(context.Background(), "u", "ghost")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestShopService_GetCart_SkipsDeadLines(t *testing.T) {
	f := newShopFixture()
	f.catalog.put(&domain.Product{ID: "alive", Price: 50})
	f.catalog.put(&domain.Product{ID: "doomed", Price: 60})

	_, _ = f.svc.AddToCart(context.Background(), "u", "alive")
	_, _ = f.svc.AddToCart(context.Background(), "u", "doomed")
	_ = f.catalog.Delete(context.Background(), "doomed")

	views, err := f.svc.GetCart(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 live line, got %d", len(views))
	}
	if views[0].Product.ID != "alive" {
		t.Errorf("unexpected product: %+v", views[0].Product)
	}
}

func TestShopService_RemoveFromCart_Idempotent(t *testing.T) {
	f := newShopFixture()
	f.catalog.put(&domain.Product{ID: "p1", Price: 50})
	item, _ := f.svc.AddToCart(context.Background(), "u", "p1")

	if err := f.svc.RemoveFromCart(context.Background(), "u", item.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.RemoveFromCart(context.Background(), "u", item.ID); err != nil {
		t.Fatalf("second removal must be a no-op, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

func TestShopService_Checkout_InsufficientFundsNoSideEffects(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 100})
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 150})
	_, _ = f.svc.AddToCart(context.Background(), "u", "p1")

	_, err := f.svc.Checkout(context.Background(), "u")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	p, _ := f.profiles.FindByUserID(context.Background(), "u")
	if p.Balance != 100 {
		t.Errorf("balance must be untouched, got %d", p.Balance)
	}
	items, _ := f.cart.ItemsByUser(context.Background(), "u")
	if len(items) != 1 {
		t.Errorf("cart must be untouched, got %d items", len(items))
	}
	if len(f.checkout.orders) != 0 {
		t.Errorf("no order may be written, got %d", len(f.checkout.orders))
	}
}

func TestShopService_Checkout_Success(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 200})
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 150})
	_, _ = f.svc.AddToCart(context.Background(), "u", "p1")

	result, err := f.svc.Checkout(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 150 {
		t.Errorf("total = %d, want 150", result.Total)
	}
	if result.NewBalance != 50 {
		t.Errorf("new balance = %d, want 50", result.NewBalance)
	}
	if result.OrderID == "" {
		t.Error("order id must be set")
	}

	items, _ := f.cart.ItemsByUser(context.Background(), "u")
	if len(items) != 0 {
		t.Errorf("cart must be cleared, got %d items", len(items))
	}
	if len(f.checkout.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(f.checkout.orders))
	}
	order := f.checkout.orders[0]
	if len(order.Items) != 1 || order.Items[0].Price != 150 {
		t.Errorf("order must snapshot the price paid, got %+v", order.Items)
	}
}

func TestShopService_Checkout_EmptyCart(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 1000})

	_, err := f.svc.Checkout(context.Background(), "u")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestShopService_Checkout_CartOfOnlyDeadLines(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 1000})
	f.catalog.put(&domain.Product{ID: "doomed", Price: 60})
	_, _ = f.svc.AddToCart(context.Background(), "u", "doomed")
	_ = f.catalog.Delete(context.Background(), "doomed")

	_, err := f.svc.Checkout(context.Background(), "u")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart for all-dead cart, got %v", err)
	}
}

func TestShopService_Checkout_ChargesCurrentPrice(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 1000})
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 100})
	_, _ = f.svc.AddToCart(context.Background(), "u", "p1")

	// Price changes after add-to-cart; checkout uses the current price.
	newPrice := int64(300)
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: newPrice})

	result, err := f.svc.Checkout(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != newPrice {
		t.Errorf("total = %d, want %d", result.Total, newPrice)
	}
}

func TestShopService_Checkout_ConcurrentDuplicateLosesCleanly(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 150})
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 150})
	_, _ = f.svc.AddToCart(context.Background(), "u", "p1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Checkout(context.Background(), "u")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrEmptyCart):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 successful checkout, got %d", succeeded)
	}

	p, _ := f.profiles.FindByUserID(context.Background(), "u")
	if p.Balance != 0 {
		t.Errorf("balance = %d, want exactly one deduction", p.Balance)
	}
	if len(f.checkout.orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(f.checkout.orders))
	}
}

// slowCartRepo widens the window between the cart snapshot and the commit so
// both concurrent checkouts snapshot the same lines before either commits.
type slowCartRepo struct {
	*stubCartRepo
	delay time.Duration
}

func (r *slowCartRepo) ItemsByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	items, err := r.stubCartRepo.ItemsByUser(ctx, userID)
	time.Sleep(r.delay)
	return items, err
}

func TestShopService_Checkout_DuplicateWithCoveringBalanceChargesOnce(t *testing.T) {
	catalog := newStubCatalogRepo()
	cart := &slowCartRepo{stubCartRepo: newStubCartRepo(), delay: 20 * time.Millisecond}
	profiles := newStubProfileRepo()
	checkout := &stubCheckoutStore{profiles: profiles, cart: cart.stubCartRepo}
	svc := NewShopService(catalog, cart, checkout, &stubOrderRepo{store: checkout}, profiles, newStubBalanceCache(), discardLogger)

	// The balance covers the total twice over, so only the cart-line
	// condition can stop the duplicate.
	profiles.put(&domain.Profile{UserID: "u", Balance: 400})
	catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 150})
	_, _ = svc.AddToCart(context.Background(), "u", "p1")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), "u")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrEmptyCart):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 successful checkout, got %d", succeeded)
	}

	p, _ := profiles.FindByUserID(context.Background(), "u")
	if p.Balance != 250 {
		t.Errorf("balance = %d, want 250 (one deduction)", p.Balance)
	}
	if len(checkout.orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(checkout.orders))
	}
}

func TestShopService_Checkout_InvalidatesBalanceCache(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 200})
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 150})
	_, _ = f.svc.AddToCart(context.Background(), "u", "p1")

	// warm the cache
	_, _ = f.svc.GetBalance(context.Background(), "u")

	if _, err := f.svc.Checkout(context.Background(), "u"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := f.svc.GetBalance(context.Background(), "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 50 {
		t.Errorf("post-checkout balance = %d, want 50", balance)
	}
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func TestShopService_ListOrders(t *testing.T) {
	f := newShopFixture()
	f.profiles.put(&domain.Profile{UserID: "u", Balance: 1000})
	f.catalog.put(&domain.Product{ID: "p1", Name: "Badge", Price: 100})

	for i := 0; i < 2; i++ {
		_, _ = f.svc.AddToCart(context.Background(), "u", "p1")
		if _, err := f.svc.Checkout(context.Background(), "u"); err != nil {
			t.Fatalf("checkout %d failed: %v", i, err)
		}
	}

	orders, err := f.svc.ListOrders(context.Background(), "u", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("expected 2 orders, got %d", len(orders))
	}
}
