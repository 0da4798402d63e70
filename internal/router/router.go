package router

import (
	"time"

	"blendresto/internal/config"
	"blendresto/internal/consumer"
	"blendresto/internal/events"
	"blendresto/internal/handler"
	"blendresto/internal/infra"
	"blendresto/internal/middleware"
	"blendresto/internal/repository"
	"blendresto/internal/service"
	"blendresto/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns the configured Gin engine plus the
// event bus whose in-flight consumers the caller must drain on shutdown.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *events.Bus) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	push := infra.NewPushChannel(rdb, cfg.RealtimeChannel)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	materialRepo := repository.NewRawMaterialRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	lotRepo := repository.NewStockLotRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	purchaseRepo := repository.NewPurchaseOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// ── Event bus & services ─────────────────────────────────────────────────
	bus := events.NewBus()

	orderSvc := service.NewOrderService(orderRepo, productRepo, bus)
	purchaseSvc := service.NewPurchaseService(purchaseRepo, bus)
	costingSvc := service.NewCostingService(lotRepo, materialRepo, movementRepo, cfg.StockDecrementPolicy)
	alertSvc := service.NewAlertService(push, dispatcher, cfg.MarginAlertFloorPct, cfg.LaborCostMaxRatio)

	// ── Fulfillment consumers ────────────────────────────────────────────────
	// All order.paid consumers see every occurrence; one failing never stops
	// the others.
	bus.Subscribe(events.OrderPaidName, consumer.NewKitchenNotifier(orderRepo, push))
	bus.Subscribe(events.OrderPaidName, consumer.NewLoyaltyAccrual(orderRepo, customerRepo, cfg.LoyaltyPointsRate))
	bus.Subscribe(events.OrderPaidName, consumer.NewStockReduction(orderRepo, recipeRepo, costingSvc, alertSvc))
	bus.Subscribe(events.PurchaseOrderReceivedName, consumer.NewReceiving(purchaseRepo, costingSvc))

	// ── Handlers ─────────────────────────────────────────────────────────────
	ordersH := handler.NewOrdersHandler(orderSvc)
	purchasesH := handler.NewPurchasesHandler(purchaseSvc)
	inventoryH := handler.NewInventoryHandler(materialRepo, lotRepo, movementRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: waiter, kitchen, manager — declared per-endpoint
		orders := v1.Group("/orders")
		{
			orders.POST("", middleware.RequireRole("waiter", "manager"), ordersH.Place)
			orders.GET("", middleware.RequireRole("waiter", "kitchen", "manager"), ordersH.List)
			orders.GET("/:id", middleware.RequireRole("waiter", "kitchen", "manager"), ordersH.Get)
			orders.POST("/:id/preparing", middleware.RequireRole("kitchen", "manager"), ordersH.MarkPreparing)
			orders.POST("/:id/ready", middleware.RequireRole("kitchen", "manager"), ordersH.MarkReady)
			orders.POST("/:id/served", middleware.RequireRole("waiter", "manager"), ordersH.MarkServed)
			orders.POST("/:id/checkout", middleware.RequireRole("waiter", "manager"), ordersH.Checkout)
			orders.DELETE("/:id", middleware.RequireRole("manager"), ordersH.Cancel)
		}

		purchases := v1.Group("/purchases", middleware.RequireRole("manager"))
		{
			purchases.POST("", purchasesH.Create)
			purchases.GET("/:id", purchasesH.Get)
			purchases.POST("/:id/receive", purchasesH.Receive)
		}

		inv := v1.Group("/inventory", middleware.RequireRole("manager"))
		{
			inv.GET("/materials", inventoryH.ListMaterials)
			inv.GET("/materials/:id/lots", inventoryH.ListLots)
			inv.GET("/movements", inventoryH.ListMovements)
			inv.GET("/alerts", inventoryH.StockAlerts)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, bus
}
