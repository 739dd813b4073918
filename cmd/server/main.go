package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/lucverne/bistro-api/internal/config"
	"github.com/lucverne/bistro-api/internal/database"
	"github.com/lucverne/bistro-api/internal/geoip"
	"github.com/lucverne/bistro-api/internal/graph"
	"github.com/lucverne/bistro-api/internal/handlers"
	"github.com/lucverne/bistro-api/internal/middleware"
	"github.com/lucverne/bistro-api/internal/types"

	_ "github.com/lucverne/bistro-api/docs/api" // Swagger docs
)

// @title Bistro API
// @version 1.0.0
// @description Restaurant ordering service with location tracking and a fraud-detection identity graph
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/lucverne/bistro-api

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the relational database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the menu on first start
	if err := database.SeedMenu(db); err != nil {
		log.Fatalf("Failed to seed menu: %v", err)
	}

	// Connect to the identity graph. The graph is optional at startup:
	// orders must keep flowing when it is down, so failure only logs.
	var graphStore *graph.Store
	if cfg.GraphURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		graphStore, err = graph.NewStore(ctx, cfg.GraphURI, cfg.GraphUser, cfg.GraphPassword, cfg.GraphDatabase)
		if err != nil {
			log.Printf("Graph store unavailable, fraud features degraded: %v", err)
			graphStore = nil
		} else if err := graphStore.EnsureSchema(ctx); err != nil {
			log.Printf("Graph schema setup failed: %v", err)
		}
		cancel()
		if graphStore != nil {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = graphStore.Close(ctx)
			}()
		}
	} else {
		log.Println("Graph store disabled (GRAPH_URI not set)")
	}

	// Geolocation resolver and demo rotation
	resolver := geoip.NewResolver(cfg.GeoAPIBaseURL, cfg.GeoAPITimeout)
	var rotation *geoip.Rotation
	if cfg.DemoMode {
		rotation = geoip.NewRotation()
		log.Println("Demo mode: client IPs drawn from the demo rotation")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("bistro-api")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.ClientIP(cfg.DemoMode, rotation))

	// Create handlers
	authHandler := &handlers.AuthHandler{DB: db, Config: cfg, Resolver: resolver}
	menuHandler := &handlers.MenuHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db, Resolver: resolver, Graph: graphStore}
	adminHandler := &handlers.AdminHandler{DB: db, Config: cfg, Graph: graphStore}
	healthHandler := &handlers.HealthHandler{DB: db, Config: cfg}

	authUser := middleware.AuthUser(db, cfg.JWTSecret)
	authAdmin := middleware.AuthAdmin(db, cfg.JWTSecret)

	// Health
	api.Get("/health", healthHandler.Health)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", authUser, authHandler.Me)
	auth.Get("/me/locations", authUser, authHandler.MyLocations)
	auth.Get("/locations", authUser, authHandler.MyLocations)

	// Menu routes (public reads, admin writes)
	menu := api.Group("/menu")
	menu.Get("/categories", menuHandler.Categories)
	menu.Get("/:id", menuHandler.GetMenuItem)
	menu.Get("/", menuHandler.ListMenu)
	menu.Post("/", authAdmin, menuHandler.CreateMenuItem)
	menu.Put("/:id", authAdmin, menuHandler.UpdateMenuItem)
	menu.Delete("/:id", authAdmin, menuHandler.DeleteMenuItem)

	// Order routes (all authenticated)
	orders := api.Group("/orders", authUser)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/statistics", authAdmin, adminHandler.Statistics)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id/status", authAdmin, orderHandler.UpdateOrderStatus)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Delete("/:id", orderHandler.CancelOrder)

	// Admin dashboard routes
	admin := api.Group("/admin", authAdmin)
	admin.Get("/locations", adminHandler.RecentLocations)
	admin.Get("/fraud", adminHandler.Fraud)
	admin.Get("/fraud/shared-ips", adminHandler.SharedIPs)
	admin.Get("/fraud/city-mismatches", adminHandler.CityMismatches)
	admin.Get("/graph", adminHandler.GraphView)
	admin.Get("/statistics", adminHandler.Statistics)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
