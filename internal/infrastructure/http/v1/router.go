// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"posdesk/internal/domain/checkout"
	"posdesk/internal/domain/editor"
	"posdesk/internal/domain/refdata"
	"posdesk/internal/domain/sales"
	"posdesk/internal/domain/session"
	"posdesk/internal/infrastructure/http/v1/handlers"
	"posdesk/internal/infrastructure/http/v1/middleware"
	"posdesk/pkg/logger"
)

// RouterConfig holds everything the GUI API talks to.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Store    *session.Store
	Inbox    *editor.Inbox
	Bridge   *editor.Bridge
	Checkout *checkout.Controller
	RefData  *refdata.Cache

	// Catalog resolves variants and customers. Defaults to RefData.
	Catalog handlers.Catalog

	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string

	// PrintMode is used when a checkout request names none.
	PrintMode sales.PrintMode

	// TerminalID is used when a request carries no X-Terminal-ID header.
	TerminalID string

	// Debug switches gin to debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.Catalog == nil && cfg.RefData != nil {
		cfg.Catalog = cfg.RefData
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.Trace())
	router.Use(middleware.Terminal(cfg.TerminalID))
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Store, cfg.RefData, cfg.Inbox, cfg.Checkout)
	router.GET("/health", healthHandler.Ready)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	{
		registerDraftRoutes(v1, cfg)
		registerEditorRoutes(v1, cfg)
		registerCheckoutRoutes(v1, cfg)
		registerRefDataRoutes(v1, cfg)
	}

	return router
}

// registerDraftRoutes registers the tab strip and cart endpoints.
func registerDraftRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	handler := handlers.NewDraftHandler(handlers.NewBaseHandler(), cfg.Store, cfg.Catalog)

	drafts := rg.Group("/drafts")
	drafts.GET("", handler.List)
	drafts.POST("", handler.Create)

	// Static segment first so "active" is never taken for a draft id.
	active := drafts.Group("/active")
	{
		active.GET("", handler.Active)
		active.PATCH("", handler.Patch)
		active.GET("/totals", handler.Totals)
		active.POST("/lines", handler.AddLine)
		active.DELETE("/lines", handler.ClearLines)
		active.PUT("/lines/:variantId", handler.UpdateLine)
		active.DELETE("/lines/:variantId", handler.RemoveLine)
	}

	drafts.DELETE("/:id", handler.Close)
	drafts.PUT("/:id/activate", handler.Activate)
}

// registerEditorRoutes registers the edit-request inbox.
func registerEditorRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Inbox == nil || cfg.Bridge == nil {
		return
	}
	handler := handlers.NewEditorHandler(handlers.NewBaseHandler(), cfg.Inbox, cfg.Bridge, cfg.Store)
	rg.POST("/editor/requests", handler.Enqueue)
}

// registerCheckoutRoutes registers checkout, payments and notifications.
func registerCheckoutRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Checkout == nil {
		return
	}
	handler := handlers.NewCheckoutHandler(handlers.NewBaseHandler(), cfg.Checkout, cfg.Store, cfg.PrintMode)

	rg.POST("/checkout", handler.Checkout)
	rg.GET("/checkout/state", handler.State)
	rg.POST("/payments", handler.ReceivePayment)
	rg.GET("/notifications", handler.Notifications)
}

// registerRefDataRoutes registers the reference data endpoints.
func registerRefDataRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.RefData == nil {
		return
	}
	handler := handlers.NewRefDataHandler(handlers.NewBaseHandler(), cfg.RefData)

	rg.GET("/refdata", handler.Get)
	rg.POST("/refdata/refresh", handler.Refresh)
}
