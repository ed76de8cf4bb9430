package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jimmyjeon420-png/baln-sub003/internal/config"
	"github.com/jimmyjeon420-png/baln-sub003/internal/handler"
	"github.com/jimmyjeon420-png/baln-sub003/internal/middleware"
	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
	"github.com/jimmyjeon420-png/baln-sub003/internal/pricing"
	"github.com/jimmyjeon420-png/baln-sub003/internal/provider"
	"github.com/jimmyjeon420-png/baln-sub003/internal/repository"
	"github.com/jimmyjeon420-png/baln-sub003/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	// Pricing engine with the configured free-period window
	engine := pricing.NewEngine(pricing.DefaultTariff(), pricing.FreePeriod{
		Start: cfg.Credits.FreePeriodStart,
		End:   cfg.Credits.FreePeriodEnd,
	})

	// AI provider adapter
	aiClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Model, cfg.Provider.Timeout)

	// Create services
	creditSvc := service.NewCreditService(repo, repo, engine, model.DefaultCreditPackages(), cfg.Credits.MonthlyBonusAmount)
	featureSvc := service.NewFeatureService(engine, creditSvc, aiClient, repo)
	adminSvc := service.NewAdminService(creditSvc, repo, cfg.Server.AdminUserIDs)

	// Create handlers
	h := handler.New(cfg, creditSvc, featureSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-Token",
	}))

	// Health check
	app.Get("/health", h.Health)

	// API routes with session authentication
	api := app.Group("/api", middleware.Auth(cfg))

	// Credits
	api.Get("/credits", h.GetCredits)
	api.Get("/credits/transactions", h.GetCreditTransactions)
	api.Get("/credits/packages", h.GetPackages)
	api.Post("/credits/purchase", h.PurchasePackage)
	api.Post("/credits/bonus/claim", h.ClaimSubscriptionBonus)

	// Pricing
	api.Get("/pricing/quote", h.GetQuote)

	// Features
	api.Post("/features/execute", h.ExecuteFeature)
	api.Get("/features/results", h.GetFeatureResults)

	// Admin (requires session auth + allowlist check)
	admin := app.Group("/api/admin", middleware.Auth(cfg), middleware.AdminAuth(adminSvc))
	admin.Get("/stats", adminHandler.GetStats)
	admin.Get("/users/:user_id/credits", adminHandler.GetUserCredits)
	admin.Post("/users/:user_id/credits/add", adminHandler.AddCredits)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
