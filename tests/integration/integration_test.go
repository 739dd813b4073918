package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/config"
	"github.com/lucverne/bistro-api/internal/database"
	"github.com/lucverne/bistro-api/internal/geoip"
	"github.com/lucverne/bistro-api/internal/graph"
	"github.com/lucverne/bistro-api/internal/handlers"
	"github.com/lucverne/bistro-api/internal/middleware"
	"github.com/lucverne/bistro-api/tests/helpers"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// buildTestApp wires the full route surface the server exposes, against the
// provided backends. Demo mode is on so location lookups stay offline.
func buildTestApp(cfg *config.Config, db *gorm.DB, graphStore *graph.Store) *fiber.App {
	resolver := geoip.NewResolver(cfg.GeoAPIBaseURL, cfg.GeoAPITimeout)
	rotation := geoip.NewRotation()

	app := fiber.New()

	api := app.Group("/api")
	api.Use(middleware.ClientIP(true, rotation))

	authHandler := &handlers.AuthHandler{DB: db, Config: cfg, Resolver: resolver}
	menuHandler := &handlers.MenuHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db, Resolver: resolver, Graph: graphStore}
	adminHandler := &handlers.AdminHandler{DB: db, Config: cfg, Graph: graphStore}
	healthHandler := &handlers.HealthHandler{DB: db, Config: cfg}

	authUser := middleware.AuthUser(db, cfg.JWTSecret)
	authAdmin := middleware.AuthAdmin(db, cfg.JWTSecret)

	api.Get("/health", healthHandler.Health)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", authUser, authHandler.Me)
	auth.Get("/me/locations", authUser, authHandler.MyLocations)
	auth.Get("/locations", authUser, authHandler.MyLocations)

	menu := api.Group("/menu")
	menu.Get("/categories", menuHandler.Categories)
	menu.Get("/:id", menuHandler.GetMenuItem)
	menu.Get("/", menuHandler.ListMenu)
	menu.Post("/", authAdmin, menuHandler.CreateMenuItem)
	menu.Put("/:id", authAdmin, menuHandler.UpdateMenuItem)
	menu.Delete("/:id", authAdmin, menuHandler.DeleteMenuItem)

	orders := api.Group("/orders", authUser)
	orders.Post("/", orderHandler.CreateOrder)
	orders.Get("/statistics", authAdmin, adminHandler.Statistics)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Put("/:id/status", authAdmin, orderHandler.UpdateOrderStatus)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)
	orders.Delete("/:id", orderHandler.CancelOrder)

	admin := api.Group("/admin", authAdmin)
	admin.Get("/locations", adminHandler.RecentLocations)
	admin.Get("/fraud", adminHandler.Fraud)
	admin.Get("/fraud/shared-ips", adminHandler.SharedIPs)
	admin.Get("/fraud/city-mismatches", adminHandler.CityMismatches)
	admin.Get("/graph", adminHandler.GraphView)
	admin.Get("/statistics", adminHandler.Statistics)

	return app
}

// TestFullStackWithPostgresAndNeo4j exercises the whole order flow against
// real backends
func TestFullStackWithPostgresAndNeo4j(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	helpers.SkipWithoutDocker(t)

	tc, err := helpers.CreateAllTestContainers(t)
	require.NoError(t, err)
	defer tc.Terminate(t)

	cfg := &config.Config{
		Port:              "3000",
		DBType:            "postgres",
		DBHost:            tc.DBHost,
		DBPort:            tc.DBPort,
		DBDatabase:        "bistro_test",
		DBUser:            "bistro",
		DBPassword:        "bistro",
		DBConnectionLimit: 5,
		DBConnectRetries:  10,
		DBConnectDelay:    2 * time.Second,
		JWTSecret:         "integration-test-secret",
		JWTExpiry:         time.Hour,
		GeoAPIBaseURL:     "http://127.0.0.1:1", // unreachable; demo IPs never hit it
		GeoAPITimeout:     time.Second,
		DemoMode:          true,
		GraphURI:          tc.GraphURI,
		GraphUser:         "neo4j",
		GraphPassword:     "testpassword",
		GraphDatabase:     "neo4j",
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedMenu(db))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	graphStore, err := graph.NewStore(ctx, cfg.GraphURI, cfg.GraphUser, cfg.GraphPassword, cfg.GraphDatabase)
	require.NoError(t, err)
	defer graphStore.Close(context.Background())
	require.NoError(t, graphStore.EnsureSchema(ctx))

	app := buildTestApp(cfg, db, graphStore)

	password := helpers.GeneratePassword()
	userToken := helpers.AcquireAccount(t, app, "alice_it", "alice_it@example.com", password, "Paris", "user")
	adminToken := helpers.AcquireAccount(t, app, "admin_it", "admin_it@example.com", password, "Lyon", "admin")

	// Menu is seeded and public
	req := httptest.NewRequest("GET", "/api/menu/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	var menu []struct {
		ID        uint    `json:"id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Available bool    `json:"available"`
	}
	helpers.ParseJSON(t, resp, &menu)
	require.NotEmpty(t, menu)

	// Place an order as the user
	orderBody, _ := json.Marshal(map[string]interface{}{
		"items": []map[string]interface{}{
			{"menu_item_id": menu[0].ID, "quantity": 2},
		},
		"notes": "no onions",
	})
	req = httptest.NewRequest("POST", "/api/orders/", bytes.NewReader(orderBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, fiber.StatusCreated)

	var placed struct {
		Order struct {
			ID         uint    `json:"id"`
			Status     string  `json:"status"`
			TotalPrice float64 `json:"total_price"`
		} `json:"order"`
		LocationTracking struct {
			IPAddress    string `json:"ip_address"`
			DetectedCity string `json:"detected_city"`
		} `json:"location_tracking"`
	}
	helpers.ParseJSON(t, resp, &placed)
	require.Equal(t, "pending", placed.Order.Status)
	require.InDelta(t, menu[0].Price*2, placed.Order.TotalPrice, 0.001)
	require.NotEmpty(t, placed.LocationTracking.IPAddress)
	require.NotEmpty(t, placed.LocationTracking.DetectedCity)

	// Graph projection is asynchronous; give it a moment
	time.Sleep(3 * time.Second)

	// The admin dashboard sees the order in the statistics
	req = httptest.NewRequest("GET", "/api/admin/statistics", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	var stats struct {
		Overall struct {
			TotalOrders int64 `json:"total_orders"`
			TotalUsers  int64 `json:"total_users"`
		} `json:"overall"`
		PerUser []struct {
			Username    string `json:"username"`
			TotalOrders int64  `json:"total_orders"`
		} `json:"per_user"`
	}
	helpers.ParseJSON(t, resp, &stats)
	require.EqualValues(t, 1, stats.Overall.TotalOrders)
	require.EqualValues(t, 2, stats.Overall.TotalUsers)

	// The graph view shows the projected identity graph
	req = httptest.NewRequest("GET", "/api/admin/graph", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, fiber.StatusOK)

	var view struct {
		Graph struct {
			Nodes []struct {
				Group string `json:"group"`
				Label string `json:"label"`
			} `json:"nodes"`
			Edges []struct {
				Label string `json:"label"`
			} `json:"edges"`
		} `json:"graph"`
	}
	helpers.ParseJSON(t, resp, &view)
	require.NotEmpty(t, view.Graph.Nodes)

	foundUser := false
	for _, n := range view.Graph.Nodes {
		if n.Group == "User" && n.Label == "alice_it" {
			foundUser = true
		}
	}
	require.True(t, foundUser, "expected User vertex for alice_it in graph view")

	// Non-admin cannot reach the dashboard
	req = httptest.NewRequest("GET", "/api/admin/statistics", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	helpers.AssertStatus(t, resp, fiber.StatusForbidden)
}

// TestGraphRecordOrderIdempotence verifies repeated projections of the same
// endpoints keep the edge set stable while the counters advance
func TestGraphRecordOrderIdempotence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	helpers.SkipWithoutDocker(t)

	tc, err := helpers.CreateAllTestContainers(t)
	require.NoError(t, err)
	defer tc.Terminate(t)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	store, err := graph.NewStore(ctx, tc.GraphURI, "neo4j", "testpassword", "neo4j")
	require.NoError(t, err)
	defer store.Close(context.Background())
	require.NoError(t, store.EnsureSchema(ctx))

	ev := graph.OrderEvent{
		Username:       "bob",
		Email:          "bob@example.com",
		RegisteredCity: "Paris",
		IPAddress:      "81.2.69.142",
		DetectedCity:   "London",
		OrderID:        1,
	}
	require.NoError(t, store.RecordOrder(ctx, ev))

	ev.OrderID = 2
	require.NoError(t, store.RecordOrder(ctx, ev))

	// Two orders over the same endpoints collapse to one USED_IP edge, and
	// the detected city disagrees with the registered one
	mismatches := store.CityMismatches(ctx)
	require.Len(t, mismatches, 1)
	require.Equal(t, "bob", mismatches[0].Username)
	require.Equal(t, "Paris", mismatches[0].RegisteredCity)
	require.Equal(t, "London", mismatches[0].DetectedCity)

	view := store.Snapshot(ctx)
	usedIP := 0
	for _, e := range view.Edges {
		if e.Label == "USED_IP" {
			usedIP++
		}
	}
	require.Equal(t, 1, usedIP)

	// One user per IP so far, no shared-IP findings
	require.Empty(t, store.SharedIPs(ctx))

	// A second account on the same address trips the shared-IP scan
	ev2 := graph.OrderEvent{
		Username:       "mallory",
		Email:          "mallory@example.com",
		RegisteredCity: "London",
		IPAddress:      "81.2.69.142",
		DetectedCity:   "London",
		OrderID:        3,
	}
	require.NoError(t, store.RecordOrder(ctx, ev2))

	shared := store.SharedIPs(ctx)
	require.Len(t, shared, 1)
	require.Equal(t, "81.2.69.142", shared[0].IPAddress)
	require.ElementsMatch(t, []string{"bob", "mallory"}, shared[0].Usernames)
}
