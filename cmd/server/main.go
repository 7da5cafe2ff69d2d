package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountapp "github.com/trading/backend/internal/application/account"
	inventoryapp "github.com/trading/backend/internal/application/inventory"
	settlementapp "github.com/trading/backend/internal/application/settlement"
	tradeapp "github.com/trading/backend/internal/application/trade"
	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/infrastructure/cache"
	"github.com/trading/backend/internal/infrastructure/config"
	"github.com/trading/backend/internal/infrastructure/logger"
	"github.com/trading/backend/internal/infrastructure/persistence"
	"github.com/trading/backend/internal/infrastructure/scheduler"
	"github.com/trading/backend/internal/interfaces/http/handler"
	"github.com/trading/backend/internal/interfaces/http/middleware"
	"github.com/trading/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting trading backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	merchantRepo := persistence.NewGormMerchantRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryItemRepository(db.DB)
	cartRepo := persistence.NewGormCartItemRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	ledgerRepo := persistence.NewGormTransactionRecordRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)

	tradeTxScope := persistence.NewGormTradeTransactionScope(db.DB)
	accountTxScope := persistence.NewGormAccountTransactionScope(db.DB)

	// Payment idempotency store. Redis when reachable, in-memory otherwise.
	idempotencyStore, err := cache.NewIdempotencyStore(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Application services
	accountService := accountapp.NewAccountService(accountTxScope, userRepo, merchantRepo, ledgerRepo, inventoryRepo, orderRepo, log)
	inventoryService := inventoryapp.NewInventoryService(inventoryRepo, productRepo, log)
	cartService := tradeapp.NewCartService(cartRepo, inventoryRepo, productRepo, log)
	orderService := tradeapp.NewOrderService(tradeTxScope, orderRepo, cartRepo, productRepo, inventoryRepo, userRepo, log)
	if cfg.Payment.IdempotencyEnabled {
		orderService.UseIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
			Enabled: true,
			TTL:     cfg.Payment.IdempotencyTTL,
		})
	}
	orderService.SetMaxRetries(cfg.Payment.MaxRetries)
	settlementService := settlementapp.NewSettlementService(settlementRepo, orderRepo, ledgerRepo, merchantRepo, log)

	// Daily settlement scheduler
	schedCfg := scheduler.Config{
		Enabled:           cfg.Settlement.Enabled,
		DailyCronSchedule: cfg.Settlement.DailyCronSchedule,
		JobTimeout:        cfg.Settlement.JobTimeout,
	}
	settlementScheduler, err := scheduler.NewSettlementScheduler(schedCfg, settlementService, log)
	if err != nil {
		log.Fatal("Invalid settlement schedule", zap.Error(err))
	}
	if err := settlementScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start settlement scheduler", zap.Error(err))
	}

	// Handlers
	accountHandler := handler.NewAccountHandler(accountService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	systemHandler := handler.NewSystemHandler(db)

	// Gin engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.CallerIdentity())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	accountRoutes := router.NewDomainGroup("account", "/accounts")
	accountRoutes.POST("/users", accountHandler.RegisterUser)
	accountRoutes.POST("/merchants", accountHandler.RegisterMerchant)
	accountRoutes.GET("/users/me", accountHandler.GetUser)
	accountRoutes.POST("/users/me/deposit", accountHandler.Deposit)
	accountRoutes.GET("/users/me/transactions", accountHandler.ListUserTransactions)
	accountRoutes.GET("/merchants/me", accountHandler.GetMerchant)
	accountRoutes.GET("/merchants/me/stats", accountHandler.GetMerchantStats)
	accountRoutes.GET("/merchants/me/transactions", accountHandler.ListMerchantTransactions)

	inventoryRoutes := router.NewDomainGroup("inventory", "/inventory")
	inventoryRoutes.POST("/products", inventoryHandler.CreateProduct)
	inventoryRoutes.POST("/stock", inventoryHandler.AddStock)
	inventoryRoutes.GET("/stock", inventoryHandler.ListMine)
	inventoryRoutes.GET("/stock/:sku", inventoryHandler.GetBySKU)
	inventoryRoutes.PUT("/stock/:sku/price", inventoryHandler.UpdatePrice)

	cartRoutes := router.NewDomainGroup("cart", "/cart")
	cartRoutes.GET("", cartHandler.Get)
	cartRoutes.POST("/items", cartHandler.AddItem)
	cartRoutes.PUT("/items/:sku", cartHandler.UpdateItem)
	cartRoutes.DELETE("/items/:sku", cartHandler.RemoveItem)
	cartRoutes.DELETE("", cartHandler.Clear)

	orderRoutes := router.NewDomainGroup("trade", "/orders")
	orderRoutes.POST("", orderHandler.Create)
	orderRoutes.POST("/from-cart", orderHandler.CreateFromCart)
	orderRoutes.GET("/mine", orderHandler.ListMine)
	orderRoutes.GET("/merchant", orderHandler.ListForMerchant)
	orderRoutes.GET("/number/:order_number", orderHandler.GetByOrderNumber)
	orderRoutes.GET("/:id", orderHandler.GetByID)
	orderRoutes.POST("/:id/pay", orderHandler.Pay)
	orderRoutes.POST("/:id/ship", orderHandler.Ship)
	orderRoutes.POST("/:id/complete", orderHandler.Complete)
	orderRoutes.POST("/:id/cancel", orderHandler.Cancel)
	orderRoutes.POST("/:id/refund", orderHandler.Refund)

	settlementRoutes := router.NewDomainGroup("settlement", "/settlements")
	settlementRoutes.POST("/run", settlementHandler.Run)
	settlementRoutes.GET("", settlementHandler.List)
	settlementRoutes.GET("/:date", settlementHandler.GetByDate)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/health", systemHandler.Health)

	r.Register(accountRoutes).
		Register(inventoryRoutes).
		Register(cartRoutes).
		Register(orderRoutes).
		Register(settlementRoutes).
		Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := settlementScheduler.Stop(ctx); err != nil {
		log.Error("Scheduler shutdown error", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
