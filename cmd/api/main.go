package main

import (
	"os"
	"path/filepath"

	"github.com/dukabook/ledger-api/internal/application/service"
	"github.com/dukabook/ledger-api/internal/config"
	"github.com/dukabook/ledger-api/internal/infrastructure/cache"
	"github.com/dukabook/ledger-api/internal/infrastructure/database"
	"github.com/dukabook/ledger-api/internal/infrastructure/realtime"
	"github.com/dukabook/ledger-api/internal/infrastructure/repository"
	"github.com/dukabook/ledger-api/internal/presentation/http/handler"
	"github.com/dukabook/ledger-api/internal/presentation/http/routes"
	"github.com/dukabook/ledger-api/pkg/logger"
	"github.com/dukabook/ledger-api/pkg/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.App.Env, cfg.App.Debug)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the remote record store
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Open the local cache mirror
	if err := os.MkdirAll(filepath.Dir(cfg.LocalCache.Path), 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create local cache directory")
	}
	cacheDB, err := database.NewSQLiteDB(cfg.LocalCache.Path)
	if err != nil {
		log.WithError(err).Fatal("Failed to open local cache")
	}
	mirror, err := cache.NewStore(cacheDB)
	if err != nil {
		log.WithError(err).Fatal("Failed to migrate local cache")
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	debtRepo := repository.NewDebtRepository(db)
	paymentRepo := repository.NewDebtPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	syncRepo := repository.NewSyncRepository(db)

	// Mutation pipeline: gate -> audit -> reconciler -> hub -> recorder
	gate := service.NewPermissionGate(userRepo, cfg.Access.BreakGlassEmail, log)
	audit := service.NewAuditLogger(auditRepo, gate, log)
	reconciler := service.NewReconciler(mirror, syncRepo, audit, log)
	hub := realtime.NewHub(reconciler, log)
	recorder := service.NewMutationRecorder(mirror, audit, hub, reconciler, log)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, gate, audit, log)
	productService := service.NewProductService(productRepo, mirror, gate, recorder, log)
	saleService := service.NewSaleService(saleRepo, productRepo, mirror, gate, recorder, log)
	expenseService := service.NewExpenseService(expenseRepo, mirror, gate, recorder, log)
	customerService := service.NewCustomerService(customerRepo, mirror, gate, recorder, log)
	debtService := service.NewDebtService(debtRepo, paymentRepo, customerRepo, mirror, gate, recorder, log)
	dashboardService := service.NewDashboardService(saleRepo, expenseRepo, debtService, reconciler, log)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(authService),
		Product:   handler.NewProductHandler(productService),
		Sale:      handler.NewSaleHandler(saleService),
		Expense:   handler.NewExpenseHandler(expenseService),
		Customer:  handler.NewCustomerHandler(customerService),
		Debt:      handler.NewDebtHandler(debtService),
		Audit:     handler.NewAuditHandler(audit),
		Sync:      handler.NewSyncHandler(reconciler),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Realtime:  handler.NewRealtimeHandler(hub, log),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager: jwtManager,
		Cfg:        cfg,
		Log:        log,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.WithField("port", port).Infof("Starting %s server", cfg.App.Name)

	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
