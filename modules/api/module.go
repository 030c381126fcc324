package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/secure-chat-relay/modules/relay"
)

// Module is the read-only REST surface over the room directory. It reaches
// the relay module through the request-reply service container; there is no
// room-creation endpoint because rooms exist only while occupied.
type Module struct {
	app       *fiber.App
	relayPort relay.Port
	port      string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new api module listening on API_PORT (default 3001).
func NewModule() *Module {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "3001"
	}
	return &Module{
		port: port,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"relay"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "relay" {
		m.relayPort = relay.NewAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.relayPort == nil {
		return fmt.Errorf("relay adapter dependency not set")
	}

	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})

	m.app.Use(recover.New())
	m.app.Use(loggerMiddleware())

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(":" + m.port); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on :%s", m.port)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// setupRoutes registers all REST routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthCheck)

	api := m.app.Group("/api/v1")
	api.Get("/rooms", m.listRooms)
	api.Get("/rooms/:id", m.getRoom)
	api.Get("/rooms/:id/members", m.getRoomMembers)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

// loggerMiddleware returns a Fiber middleware for request logging.
func loggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		log.Printf("[api] %s %s %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	}
}
