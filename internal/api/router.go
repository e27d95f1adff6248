package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/linhthach/sanctum/internal/api/handler"
	"github.com/linhthach/sanctum/internal/api/middleware"
	"github.com/linhthach/sanctum/internal/auth"
	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/service"
	"github.com/linhthach/sanctum/internal/identity"
	"github.com/linhthach/sanctum/internal/infrastructure/config"
	"github.com/linhthach/sanctum/internal/infrastructure/db/mongo"
	redisdb "github.com/linhthach/sanctum/internal/infrastructure/db/redis"
	"github.com/linhthach/sanctum/internal/infrastructure/queue"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	cfg *config.Config,
	client *mongodriver.Client,
	db *mongodriver.Database,
	rdb *redis.Client,
	dispatcher *queue.GameLogDispatcher,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("sanctum"))

	// --- Infrastructure ---
	profileRepo := mongo.NewProfileRepository(db)
	catalogRepo := mongo.NewCatalogRepository(db)
	cartRepo := mongo.NewCartRepository(db)
	orderRepo := mongo.NewOrderRepository(db)
	gameLogRepo := mongo.NewGameLogRepository(db)
	checkoutStore := mongo.NewCheckoutStore(client, db)
	balanceCache := redisdb.NewBalanceCache(rdb)

	provider := identity.NewClient(identity.Config{
		Endpoint:  cfg.Identity.Endpoint,
		ProjectID: cfg.Identity.ProjectID,
		Timeout:   cfg.Identity.Timeout,
	}, log)
	resolver := auth.NewResolver(provider, cfg.Identity.Timeout, log)

	// --- Services ---
	profileService := service.NewProfileService(profileRepo, log)
	shopService := service.NewShopService(catalogRepo, cartRepo, checkoutStore, orderRepo, profileRepo, balanceCache, log)
	gameService := service.NewGameService(profileRepo, gameLogRepo, dispatcher, balanceCache, log)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(resolver, provider, profileService, handler.CookieOptions{
		BearerMaxAge:  cfg.Cookie.BearerMaxAge,
		SessionMaxAge: cfg.Cookie.SessionMaxAge,
		Secure:        cfg.IsProduction(),
	}, log)
	profileHandler := handler.NewProfileHandler(profileService)
	shopHandler := handler.NewShopHandler(shopService)
	earnHandler := handler.NewEarnHandler(gameService)

	identify := middleware.Identity(resolver, profileService)
	requireUser := middleware.RequireUser()

	// --- Auth & session ---
	e.POST("/auth/session", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, identify)
	e.GET("/auth/me", authHandler.Me, identify, requireUser)

	// --- Profiles ---
	e.GET("/roles", profileHandler.Roles)
	e.GET("/profiles/:userId", profileHandler.Get)
	e.POST("/profiles/batch", profileHandler.Batch)
	e.PATCH("/profiles/me", profileHandler.UpdateMe, identify, requireUser)
	e.POST("/profiles/me/gift", profileHandler.ClaimGift, identify, requireUser)

	// --- Shop ---
	e.GET("/shop/products", shopHandler.ListProducts)
	e.GET("/shop/products/:id", shopHandler.GetProduct)
	e.POST("/shop/products", shopHandler.CreateProduct, identify, requireUser,
		middleware.RequireMinimumLevel(domain.LevelModerator))
	e.PATCH("/shop/products/:id", shopHandler.UpdateProduct, identify, requireUser)
	e.DELETE("/shop/products/:id", shopHandler.DeleteProduct, identify, requireUser)
	e.GET("/shop/balance", shopHandler.Balance, identify, requireUser)
	e.GET("/shop/cart", shopHandler.GetCart, identify, requireUser)
	e.POST("/shop/cart", shopHandler.AddToCart, identify, requireUser)
	e.DELETE("/shop/cart/:itemId", shopHandler.RemoveFromCart, identify, requireUser)
	e.POST("/shop/checkout", shopHandler.Checkout, identify, requireUser)
	e.GET("/shop/orders", shopHandler.ListOrders, identify, requireUser)

	// --- Earn games ---
	earn := e.Group("/earn", identify, requireUser)
	earn.POST("/wheel", earnHandler.SpinWheel)
	earn.POST("/mine", earnHandler.Mine)
	earn.POST("/box", earnHandler.OpenMysteryBox)
	earn.GET("/history", earnHandler.History)

	// --- Health & metrics ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
