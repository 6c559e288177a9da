package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/infrastructure/database"
	"github.com/sangkips/repairshop-api/internal/infrastructure/repository"
	"github.com/sangkips/repairshop-api/internal/presentation/http/handler"
	"github.com/sangkips/repairshop-api/internal/presentation/http/middleware"
	"github.com/sangkips/repairshop-api/internal/presentation/http/routes"
	"github.com/sangkips/repairshop-api/internal/scheduler"
	"github.com/sangkips/repairshop-api/pkg/email"
	"github.com/sangkips/repairshop-api/pkg/logger"
	"github.com/sangkips/repairshop-api/pkg/printer"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Open(&cfg.Database, logger.Named(log, "database"))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Seed default data
	if err := database.SeedDefaultData(db, cfg.Admin, log); err != nil {
		log.Warn("failed to seed default data", zap.Error(err))
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	location := cfg.Shop.Location()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	stockRepo := repository.NewStockRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	ticketRepo := repository.NewServiceTicketRepository(db)
	sequenceRepo := repository.NewServiceSequenceRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	transactor := repository.NewTransactor(db)

	// Initialize email service; without SMTP settings nothing is mailed
	var (
		notifier service.Notifier
		digest   scheduler.DigestSender
	)
	if cfg.Email.Enabled() {
		emailService := email.NewEmailService(email.EmailConfig{
			SMTPHost:     cfg.Email.Host,
			SMTPPort:     cfg.Email.Port,
			SMTPUsername: cfg.Email.Username,
			SMTPPassword: cfg.Email.Password,
			FromName:     cfg.Email.FromName,
			FromEmail:    cfg.Email.From,
			ShopName:     cfg.Shop.Name,
			ShopPhone:    cfg.Shop.Phone,
		})
		notifier, digest = emailService, emailService
	} else {
		log.Info("smtp not configured, customer notifications disabled")
	}

	// Initialize services
	hub := service.NewStatusHub()
	defer hub.Close()

	authService := service.NewAuthService(userRepo, jwtManager, logger.Named(log, "auth"))
	inventoryService := service.NewInventoryService(stockRepo, transactor, logger.Named(log, "inventory"), cfg.Inventory.LowStockThreshold)
	saleService := service.NewSaleService(saleRepo, inventoryService, transactor, logger.Named(log, "sale"))
	ticketService := service.NewServiceTicketService(ticketRepo, sequenceRepo, inventoryService, transactor, service.ServiceTicketOptions{
		Location:    location,
		PricingMode: cfg.Service.PricingMode,
		Hub:         hub,
		Notifier:    notifier,
	}, logger.Named(log, "service"))
	dashboardService := service.NewDashboardService(saleRepo, ticketRepo, inventoryService, ticketService, location)

	// Initialize thermal printer
	thermalPrinter, err := printer.New(printer.Config{
		Type:    cfg.Printer.Type,
		Device:  cfg.Printer.USBPath,
		Address: cfg.Printer.Address,
	})
	if err != nil {
		log.Warn("failed to initialize printer", zap.Error(err))
		thermalPrinter = printer.None()
	}
	printerService := service.NewPrinterService(thermalPrinter, saleService, ticketService, service.PrinterOptions{
		Width: cfg.Printer.Width,
		Header: entity.ReceiptHeader{
			StoreName: cfg.Shop.Name,
			Address:   cfg.Shop.Address,
			Phone:     cfg.Shop.Phone,
		},
		Location: location,
	}, logger.Named(log, "printer"))

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Stock:     handler.NewStockHandler(inventoryService),
		Sale:      handler.NewSaleHandler(saleService, location),
		Service:   handler.NewServiceHandler(ticketService, location),
		Public:    handler.NewPublicHandler(inventoryService, ticketService),
		Dashboard: handler.NewDashboardHandler(dashboardService, location),
		Printer:   handler.NewPrinterHandler(printerService),
	}

	rateLimiter := middleware.NewRateLimiter(middleware.LimitsFromConfig(cfg.RateLimit))
	defer rateLimiter.Stop()

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Log:             logger.Named(log, "http"),
		RateLimiter:     rateLimiter,
	})

	// Scheduled jobs
	jobs := scheduler.NewScheduler(cfg.Cron, location, idempotencyRepo, inventoryService, userRepo, digest, logger.Named(log, "scheduler"))
	jobs.Start()
	defer jobs.Stop()

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("starting server",
			zap.String("name", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	// End open status streams before draining connections
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
