package routes

import (
	"time"

	"github.com/dukabook/ledger-api/internal/config"
	"github.com/dukabook/ledger-api/internal/presentation/http/handler"
	"github.com/dukabook/ledger-api/internal/presentation/http/middleware"
	"github.com/dukabook/ledger-api/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Product   *handler.ProductHandler
	Sale      *handler.SaleHandler
	Expense   *handler.ExpenseHandler
	Customer  *handler.CustomerHandler
	Debt      *handler.DebtHandler
	Audit     *handler.AuditHandler
	Sync      *handler.SyncHandler
	Dashboard *handler.DashboardHandler
	Realtime  *handler.RealtimeHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager *utils.JWTManager
	Cfg        *config.Config
	Log        *logrus.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-owner rate limiter
		rateLimiter := middleware.NewOwnerRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers) {
	// Auth/Profile routes
	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/profile", h.Auth.GetProfile)

	// Dashboard
	protected.GET("/dashboard", h.Dashboard.GetSummary)

	// Reconciliation
	sync := protected.Group("/sync")
	{
		sync.POST("/refresh", h.Sync.Refresh)
		sync.GET("/status", h.Sync.Status)
		sync.GET("/pending", h.Sync.Pending)
	}

	// Realtime change notifications
	protected.GET("/realtime", h.Realtime.Subscribe)

	// Record collections
	registerProductRoutes(protected, h)
	registerSaleRoutes(protected, h)
	registerExpenseRoutes(protected, h)
	registerCustomerRoutes(protected, h)
	registerDebtRoutes(protected, h)

	// Audit trail (admin)
	protected.GET("/audit-logs", h.Audit.List)

	// Users and roles (admin)
	users := protected.Group("/users")
	{
		users.GET("", h.User.List)
		users.PUT("/:id/role", h.User.ChangeRole)
	}
}

func registerProductRoutes(protected *gin.RouterGroup, h *Handlers) {
	products := protected.Group("/products")
	{
		products.GET("", h.Product.List)
		products.POST("", h.Product.Create)
		products.GET("/:id", h.Product.Get)
		products.PUT("/:id", h.Product.Update)
		products.DELETE("/:id", h.Product.Delete)
	}
}

func registerSaleRoutes(protected *gin.RouterGroup, h *Handlers) {
	sales := protected.Group("/sales")
	{
		sales.GET("", h.Sale.List)
		sales.POST("", h.Sale.Create)
		sales.GET("/:id", h.Sale.Get)
		sales.PUT("/:id", h.Sale.Update)
		sales.DELETE("/:id", h.Sale.Delete)
	}
}

func registerExpenseRoutes(protected *gin.RouterGroup, h *Handlers) {
	expenses := protected.Group("/expenses")
	{
		expenses.GET("", h.Expense.List)
		expenses.POST("", h.Expense.Create)
		expenses.GET("/:id", h.Expense.Get)
		expenses.PUT("/:id", h.Expense.Update)
		expenses.DELETE("/:id", h.Expense.Delete)
	}
}

func registerCustomerRoutes(protected *gin.RouterGroup, h *Handlers) {
	customers := protected.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.DELETE("/:id", h.Customer.Delete)
	}
}

func registerDebtRoutes(protected *gin.RouterGroup, h *Handlers) {
	debts := protected.Group("/debts")
	{
		debts.GET("", h.Debt.List)
		debts.POST("", h.Debt.Create)
		debts.POST("/repair-payments", h.Debt.RepairPayments)
		debts.GET("/:id", h.Debt.Get)
		debts.PUT("/:id", h.Debt.Update)
		debts.DELETE("/:id", h.Debt.Delete)
		debts.GET("/:id/payments", h.Debt.ListPayments)
		debts.POST("/:id/payments", h.Debt.RecordPayment)
	}
}
