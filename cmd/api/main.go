package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "storefront/api/swagger" // swagger docs
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/jobs"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/shipping"
	"storefront/internal/tracing"
	"storefront/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Storefront API
// @version         1.0
// @description     Shipping rates and catalog pricing for a single-store commerce backend.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	logger.Init("storefront-api", cfg.LogLevel, cfg.GinMode != gin.ReleaseMode)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, "storefront-api", cfg.OTLPEndpoint)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Tracing setup failed")
	}
	if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		zlog.Fatal().Err(err).Msg("Database connection failed")
	}
	zlog.Info().Msg("Connected to PostgreSQL successfully.")

	locker := service.NewMutexLocker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		locker = service.NewRedisLocker(rdb, cfg.PricingLockTTL)
		zlog.Info().Str("addr", cfg.RedisAddr).Msg("Catalog pricing lock shared through Redis")
	}

	zones, err := shipping.NewZoneMatcher()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Zone matcher setup failed")
	}
	engine := shipping.NewEngine(zones)
	if cfg.StorePickupEnabled {
		engine.Register(shipping.StorePickup{Fee: cfg.StorePickupFee})
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewUserGroupRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	purchasableRepo := repository.NewPurchasableRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	methodRepo := repository.NewShippingMethodRepository(db)
	ruleRepo := repository.NewShippingRuleRepository(db)
	categoryRepo := repository.NewShippingCategoryRepository(db)
	zoneRepo := repository.NewShippingZoneRepository(db)
	pricingRuleRepo := repository.NewCatalogPricingRuleRepository(db)
	pricingRepo := repository.NewCatalogPricingRepository(db)

	ruleCache := service.NewRuleCache(pricingRuleRepo)
	pricingService := service.NewCatalogPricingService(
		pricingRepo, purchasableRepo, groupRepo, auditRepo, txManager,
		ruleCache, locker, wsHub, cfg.PricingBatchSize,
	)

	pricingJob := jobs.NewCatalogPricingJob(pricingService, cfg.PricingSchedule, cfg.PricingAtomic)
	if err := pricingJob.Start(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("Catalog pricing job failed to start")
	}
	defer pricingJob.Stop()

	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	groupService := service.NewUserGroupService(groupRepo, userRepo, txManager)
	auditService := service.NewAuditService(auditRepo)
	purchasableService := service.NewPurchasableService(purchasableRepo, categoryRepo, auditRepo, txManager)
	pricingRuleService := service.NewCatalogPricingRuleService(pricingRuleRepo, groupRepo, auditRepo, txManager, ruleCache, pricingJob)
	shippingService := service.NewShippingService(
		methodRepo, ruleRepo, categoryRepo, zoneRepo, purchasableRepo, orderRepo,
		auditRepo, txManager, pricingService, engine, zones,
	)
	orderService := service.NewOrderService(orderRepo, purchasableRepo, pricingService, txManager)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, groupService)
	auditHandler := handler.NewAuditHandler(auditService)
	purchasableHandler := handler.NewPurchasableHandler(purchasableService)
	pricingHandler := handler.NewCatalogPricingHandler(pricingRuleService, pricingService, cfg.PricingAtomic)
	shippingHandler := handler.NewShippingHandler(shippingService)
	orderHandler := handler.NewOrderHandler(orderService)

	// Set up Gin Router
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint: catalog pricing progress events
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// API Routing
	api := router.Group("")
	userHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	purchasableHandler.RegisterRoutes(api)
	pricingHandler.RegisterRoutes(api)
	shippingHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("Server shutdown failed")
	}
}
