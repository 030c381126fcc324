package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/secure-chat-relay/modules/api"
	"github.com/example/secure-chat-relay/modules/broadcast"
	"github.com/example/secure-chat-relay/modules/relay"
	"github.com/example/secure-chat-relay/modules/wsserver"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Secure Chat Relay ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	relayModule := relay.NewModule()
	broadcastModule := broadcast.NewModule()
	wsModule := wsserver.NewModule(relayModule)
	apiModule := api.NewModule()

	// Inject the broadcast hub where the ServiceContainer cannot carry it:
	// the relay coordinator subscribes joined connections to broadcast
	// groups, and the WebSocket server registers raw connections.
	relayModule.SetRoomSubscriber(broadcastModule.GetHub())
	wsModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - relay: core domain (registry, coordinator, room secrets)
	// - broadcast: event consumer (WebSocket fan-out)
	// - ws-server: client-facing WebSocket endpoint
	// - api: read-only room directory (depends on relay)
	app.Register(relayModule)
	app.Register(broadcastModule)
	app.Register(wsModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		apiPort = "3001"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Event-Driven Relay:")
	log.Println("  - join/send/disconnect -> relay module -> room events -> broadcast module -> WebSocket clients")
	log.Println("  - Room secrets are generated per room and broadcast in meta notifications")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Message types: join {username, room_id}, send {body, room_id, time}")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", apiPort)
	log.Println("  GET    /health                    - Health check")
	log.Println("  GET    /api/v1/rooms              - List occupied rooms")
	log.Println("  GET    /api/v1/rooms/:id          - Room occupancy")
	log.Println("  GET    /api/v1/rooms/:id/members  - Room member usernames")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
