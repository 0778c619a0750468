package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"rescueplate/internal/config"
	"rescueplate/internal/database"
	"rescueplate/internal/models"
	"rescueplate/internal/server"
	"rescueplate/internal/services"
	"rescueplate/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- Storage ---
	stores, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// --- Listing events (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		err = mqClient.ConsumeListingEvents(func(event models.ListingEvent) error {
			log.Printf("Listing event %s: listing=%s vendor=%s", event.Type, event.ListingID, event.VendorID)
			return nil
		})
		if err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Println("RABBITMQ_URL not set; listing events are disabled")
	}

	// --- Services ---
	authService := services.NewAuthService(stores.Users, cfg.JWTSecret, cfg.JWTTTL)
	listingService := services.NewListingService(stores.Listings, publisher)

	app := server.NewApp(server.Options{
		AuthService:    authService,
		ListingService: listingService,
		CORSOrigins:    cfg.CORSOrigins,
	})

	// --- Start HTTP Server ---
	addr := ":" + cfg.Port
	log.Printf("Starting server on port %s", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
