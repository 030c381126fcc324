package wsserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/secure-chat-relay/modules/broadcast"
	"github.com/example/secure-chat-relay/modules/relay"
)

// Module serves the WebSocket endpoint clients connect to.
type Module struct {
	app         *fiber.App
	handlers    *Handlers
	addr        string
	relayModule *relay.Module
	hub         *broadcast.Hub
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new WebSocket server module listening on PORT
// (default 3000).
func NewModule(relayModule *relay.Module) *Module {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	return &Module{
		addr:        ":" + port,
		relayModule: relayModule,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "ws-server"
}

// SetHub sets the broadcast hub (called from main.go).
func (m *Module) SetHub(hub *broadcast.Hub) {
	m.hub = hub
}

// Start initializes and starts the WebSocket server.
func (m *Module) Start(_ context.Context) error {
	if m.hub == nil {
		return fmt.Errorf("broadcast hub dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "Secure Chat Relay",
		DisableStartupMessage: true,
		ErrorHandler:          m.errorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${method} ${path} ${latency}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:8080"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.handlers = NewHandlers(m.relayModule, m.hub)
	m.registerRoutes()

	// Start server in goroutine with startup error detection
	errCh := make(chan error, 1)
	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("WebSocket server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	log.Printf("[ws-server] WebSocket server started on %s", m.addr)
	return nil
}

// Stop gracefully shuts down the WebSocket server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app != nil {
		if err := m.app.ShutdownWithContext(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}
	log.Println("[ws-server] WebSocket server stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr":              m.addr,
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// registerRoutes sets up the WebSocket routes.
func (m *Module) registerRoutes() {
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "secure-chat-relay",
		})
	})

	// WebSocket upgrade middleware
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	m.app.Get("/ws", websocket.New(m.handlers.HandleWebSocket))
}

// errorHandler handles errors globally.
func (m *Module) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
