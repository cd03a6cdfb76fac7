// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/domain/access"
	"stockerp/internal/domain/alerts"
	"stockerp/internal/domain/documents"
	"stockerp/internal/domain/items"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/domain/pricing"
	"stockerp/internal/domain/reports"
	"stockerp/internal/infrastructure/http/v1/handlers"
	"stockerp/internal/infrastructure/http/v1/middleware"
	"stockerp/pkg/logger"
)

// RouterConfig holds the services exposed over HTTP.
type RouterConfig struct {
	// Mode is the gin mode; release when empty.
	Mode string

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Access    *access.Service
	Items     *items.Service
	Ledger    *ledger.Service
	Documents *documents.Service
	Alerts    *alerts.Service
	Pricing   *pricing.Service
	Reports   *reports.Service

	Version      string
	Storage      string
	HealthChecks []handlers.HealthCheck
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.Storage, cfg.HealthChecks...)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))  // 1. Validate JWT
	v1.Use(middleware.Permissions(cfg.Access)) // 2. Load permission snapshot

	base := handlers.NewBaseHandler(cfg.Access.Evaluator())

	registerAccessRoutes(v1, base, cfg)
	registerItemRoutes(v1, base, cfg)
	registerLedgerRoutes(v1, base, cfg)
	registerDocumentRoutes(v1, base, cfg)
	registerAlertRoutes(v1, base, cfg)
	registerPricingRoutes(v1, base, cfg)
	registerReportRoutes(v1, base, cfg)

	return router
}

func registerAccessRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAccessHandler(base, cfg.Access)
	group := rg.Group("/access")
	group.GET("/me", h.Me)
	group.POST("/refresh", h.Refresh)
}

func registerItemRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Items == nil {
		return
	}
	e := cfg.Access.Evaluator()
	h := handlers.NewItemHandler(base, cfg.Items)
	group := rg.Group("/items")

	group.GET("", middleware.RequirePermission(e, access.ResourceItems, access.ActionRead), h.List)
	group.POST("", middleware.RequirePermission(e, access.ResourceItems, access.ActionCreate), h.Create)
	group.GET("/:id", middleware.RequirePermission(e, access.ResourceItems, access.ActionRead), h.Get)
	group.PUT("/:id", middleware.RequirePermission(e, access.ResourceItems, access.ActionUpdate), h.Update)
	group.POST("/:id/deactivate", middleware.RequirePermission(e, access.ResourceItems, access.ActionDelete), h.Deactivate)
	group.GET("/:id/stock", middleware.RequirePermission(e, access.ResourceStock, access.ActionRead), h.StockSummary)
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Ledger == nil {
		return
	}
	e := cfg.Access.Evaluator()
	h := handlers.NewLedgerHandler(base, cfg.Ledger)
	group := rg.Group("/stock")

	read := middleware.RequirePermission(e, access.ResourceStock, access.ActionRead)
	write := middleware.RequirePermission(e, access.ResourceStock, access.ActionUpdate)
	// A direct transfer skips the transfer document, so it needs both grants.
	transfer := middleware.RequireAllPermissions(e,
		access.Check{Resource: access.ResourceStock, Action: access.ActionUpdate},
		access.Check{Resource: access.ResourceStockTransfers, Action: access.ActionCreate},
	)

	group.GET("/balances", read, h.Balances)
	group.GET("/transactions", read, h.Transactions)
	group.GET("/reconcile", read, h.Reconcile)
	group.POST("/movements", write, h.ApplyMovement)
	group.POST("/transfers", transfer, h.Transfer)
}

// registerDocumentRoutes registers document endpoints.
// The document service resolves the resource from the document type and checks it itself.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Documents == nil {
		return
	}
	h := handlers.NewDocumentHandler(base, cfg.Documents)
	group := rg.Group("/documents")

	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.POST("/:id/transitions", h.Transition)
	group.POST("/:id/count", h.RecordCount)
	group.POST("/:id/pick", h.RecordPick)
	group.POST("/:id/notes", h.Annotate)
	group.GET("/:id/history", h.History)
}

func registerAlertRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Alerts == nil {
		return
	}
	e := cfg.Access.Evaluator()
	h := handlers.NewAlertHandler(base, cfg.Alerts)
	group := rg.Group("/alerts")
	group.Use(middleware.RequirePermission(e, access.ResourceStock, access.ActionRead))

	group.GET("", h.Current)
	group.POST("/refresh", h.Refresh)
}

func registerPricingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Pricing == nil {
		return
	}
	e := cfg.Access.Evaluator()
	h := handlers.NewPricingHandler(base, cfg.Pricing)

	read := middleware.RequirePermission(e, access.ResourcePriceLists, access.ActionRead)
	create := middleware.RequirePermission(e, access.ResourcePriceLists, access.ActionCreate)
	update := middleware.RequirePermission(e, access.ResourcePriceLists, access.ActionUpdate)

	lists := rg.Group("/price-lists")
	lists.GET("", read, h.ListPriceLists)
	lists.POST("", create, h.CreatePriceList)
	lists.GET("/:id/tiers", read, h.ListTiers)
	lists.POST("/:id/tiers", update, h.AddTier)

	// Order entry quotes prices without browsing price lists.
	quote := middleware.RequireAnyPermission(e,
		access.Check{Resource: access.ResourcePriceLists, Action: access.ActionRead},
		access.Check{Resource: access.ResourceSalesOrders, Action: access.ActionCreate},
	)
	rg.GET("/prices/quote", quote, h.Quote)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Reports == nil {
		return
	}
	e := cfg.Access.Evaluator()
	h := handlers.NewReportHandler(base, cfg.Reports)
	group := rg.Group("/reports")
	group.Use(middleware.RequirePermission(e, access.ResourceReports, access.ActionRead))

	group.GET("/stock-turnover", h.StockTurnover)
}
