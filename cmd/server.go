// server.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/memorai/memorai/pkg/config"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory/memoryapi"
)

const version = "0.2.0"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger with config
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))
	logx.SetJSON(cfg.IsProd())

	logx.Info("🚀 Starting MemorAI Memory Service...")
	logx.Infof("Environment: %s", cfg.Environment)

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Start background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	// 5. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "MemorAI Memory Service",
		DisableStartupMessage: true,
		ErrorHandler:          memoryapi.ErrorHandler(cfg.Server.RedactErrors),
		BodyLimit:             4 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	// 6. Global Middleware
	setupMiddleware(app, cfg)

	// 7. Info Endpoint
	app.Get("/", infoHandler(cfg))

	// 8. Register Routes
	registerRoutes(app, container)

	// 9. 404 Handler
	app.Use(memoryapi.NotFoundHandler)

	// 10. Print Route Summary
	printRouteSummary()

	// 11. Start Server with Graceful Shutdown
	startServer(app, cfg, cancel)
}

// ============================================================================
// Setup Functions
// ============================================================================

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	// Panic recovery
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))

	// CORS
	app.Use(cors.New(corsConfig(cfg.Server.CORSOrigins)))

	// Request logger
	logFormat := "${time} | ${status} | ${latency} | ${method} ${path}"
	if cfg.IsDevelopment() {
		logFormat += " | ${ip} | ${respHeader:X-Request-ID}\n"
	} else {
		logFormat += "\n"
	}

	app.Use(logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
		Output:     os.Stderr,
	}))
}

func registerRoutes(app *fiber.App, container *Container) {
	logx.Info("📝 Registering routes...")

	// Routes: /health, /memories, /memories/:id, /memories/:id/history, /search, /reset
	container.MemoryHandlers.RegisterRoutes(app, container.APIKeyMiddleware)
	logx.Info("✓ Memory routes registered")

	logx.Info("✅ All routes registered")
}

// ============================================================================
// Handler Functions
// ============================================================================

// infoHandler returns basic API information
func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "MemorAI Memory Service",
			"version":     version,
			"description": "Smart memory storage and retrieval for AI agents",
			"environment": cfg.Environment,
			"endpoints": fiber.Map{
				"health":     "GET /health",
				"add":        "POST /memories",
				"list":       "GET /memories?user_id=&agent_id=&run_id=&limit=",
				"get":        "GET /memories/:id",
				"update":     "PUT /memories/:id",
				"delete":     "DELETE /memories/:id",
				"delete_all": "DELETE /memories?user_id=&agent_id=",
				"history":    "GET /memories/:id/history",
				"search":     "POST /search",
				"reset":      "POST /reset",
			},
			"authentication": fiber.Map{
				"enabled": cfg.Auth.Enabled(),
				"header":  "X-API-Key: <api_key>",
			},
		})
	}
}

// ============================================================================
// Utility Functions
// ============================================================================

func corsConfig(origins []string) cors.Config {
	allowOrigins := strings.Join(origins, ",")
	if containsWildcard(origins) {
		allowOrigins = "*"
	}
	return cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		// an empty AllowHeaders echoes whatever the preflight requests;
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: !containsWildcard(origins),
		ExposeHeaders:    fiber.HeaderXRequestID,
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Health: /health")
	logx.Info("   ├─ Info: /")
	logx.Info("   ├─ Memories: /memories, /memories/:id, /memories/:id/history")
	logx.Info("   ├─ Search: /search")
	logx.Info("   └─ Reset: /reset")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, cfg *config.Config, cancel context.CancelFunc) {
	port := fmt.Sprintf("%d", cfg.Server.Port)

	// Run server in a goroutine
	go func() {
		logx.Info(strings.Repeat("=", 71))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Infof("🔒 Environment: %s", cfg.Environment)
		logx.Info(strings.Repeat("=", 71))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	gracefulShutdown(app, cancel)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal
	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	// Cancel context to stop background services
	cancel()

	// Shutdown the server with timeout
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
