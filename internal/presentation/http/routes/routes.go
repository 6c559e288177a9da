package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	domainRepo "github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/internal/presentation/http/handler"
	"github.com/sangkips/repairshop-api/internal/presentation/http/middleware"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	Stock     *handler.StockHandler
	Sale      *handler.SaleHandler
	Service   *handler.ServiceHandler
	Public    *handler.PublicHandler
	Dashboard *handler.DashboardHandler
	Printer   *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Log             *zap.Logger
	// RateLimiter is created from Cfg.RateLimit when nil.
	RateLimiter *middleware.RateLimiter
}

var (
	staff     = []enum.Role{enum.RoleAdmin, enum.RoleTechnician}
	adminOnly = []enum.Role{enum.RoleAdmin}
)

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	rateLimiter := deps.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewRateLimiter(middleware.LimitsFromConfig(deps.Cfg.RateLimit))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":         "ok",
			"service":        deps.Cfg.App.Name,
			"active_clients": rateLimiter.ActiveClients(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required), limited per client IP
		public := v1.Group("")
		public.Use(rateLimiter.Middleware())
		registerAuthRoutes(public, h)
		registerPublicRoutes(public, h)

		// Protected routes (authentication required), limited per user
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps, log)
	}

	return router
}

func registerAuthRoutes(v1 *gin.RouterGroup, h *Handlers) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
	}
}

func registerPublicRoutes(v1 *gin.RouterGroup, h *Handlers) {
	public := v1.Group("/public")
	{
		public.GET("/catalog", h.Public.Catalog)
		public.GET("/services/:code", h.Public.ServiceStatus)
		public.GET("/services/:code/stream", h.Public.StreamServiceStatus)
	}
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps, log *zap.Logger) {
	// Profile
	protected.GET("/profile", h.Auth.GetProfile)

	// Customer requests
	requests := protected.Group("/service-requests")
	requests.Use(middleware.RequireRole(enum.RoleCustomer))
	{
		requests.GET("", h.Service.MyRequests)
		requests.POST("", h.Service.SubmitRequest)
	}

	// Dashboard
	protected.GET("/dashboard", middleware.RequireRole(staff...), h.Dashboard.GetStats)

	registerStockRoutes(protected, h)

	idempotent := middleware.Idempotent(deps.IdempotencyRepo, log)
	registerSaleRoutes(protected, h, idempotent)
	registerServiceRoutes(protected, h, idempotent)

	registerAdminRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerStockRoutes(protected *gin.RouterGroup, h *Handlers) {
	stock := protected.Group("/stock")
	stock.Use(middleware.RequireRole(staff...))
	{
		stock.GET("", h.Stock.List)
		stock.GET("/low", h.Stock.LowStock)
		stock.GET("/:id", h.Stock.Get)

		admin := stock.Group("")
		admin.Use(middleware.RequireRole(adminOnly...))
		admin.POST("", h.Stock.Create)
		admin.POST("/import", h.Stock.Import)
		admin.PUT("/:id", h.Stock.Update)
		admin.POST("/:id/restock", h.Stock.Restock)
		admin.POST("/:id/adjust", h.Stock.Adjust)
		admin.DELETE("/:id", h.Stock.Delete)
	}
}

func registerSaleRoutes(protected *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	sales := protected.Group("/sales")
	sales.Use(middleware.RequireRole(staff...))
	{
		sales.GET("", h.Sale.List)
		// Submission requires an idempotency key so a retried checkout
		// never consumes stock twice
		sales.POST("", idempotent, h.Sale.Submit)
		sales.POST("/quote", h.Sale.Quote)
		sales.GET("/:id", h.Sale.Get)
		sales.GET("/:id/receipt", h.Printer.SaleReceipt)
	}
}

func registerServiceRoutes(protected *gin.RouterGroup, h *Handlers, idempotent gin.HandlerFunc) {
	services := protected.Group("/services")
	services.Use(middleware.RequireRole(staff...))
	{
		services.GET("", h.Service.List)
		services.POST("", idempotent, h.Service.Create)
		services.POST("/quote", h.Service.QuoteDraft)
		services.GET("/:id", h.Service.Get)
		services.GET("/:id/quote", h.Service.Quote)
		services.GET("/:id/receipt", h.Printer.ServiceReceipt)
		services.PUT("/:id/status", h.Service.UpdateStatus)
		services.PUT("/:id/payment-status", h.Service.UpdatePaymentStatus)
		services.PUT("/:id/payment", h.Service.UpdatePayment)
		services.POST("/:id/pickup", h.Service.Pickup)
		services.DELETE("/:id", h.Service.Delete)
	}
}

func registerAdminRoutes(protected *gin.RouterGroup, h *Handlers) {
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(adminOnly...))
	{
		admin.POST("/users", h.Auth.CreateStaff)
		admin.DELETE("/stock", h.Stock.DeleteAll)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printerGroup := protected.Group("/printer")
	printerGroup.Use(middleware.RequireRole(staff...))
	{
		printerGroup.GET("/status", h.Printer.GetStatus)
		printerGroup.POST("/test", h.Printer.TestPrint)
		printerGroup.POST("/receipt", h.Printer.PrintReceipt)
	}
}
