package server

import (
	"errors"
	"log"

	"rescueplate/internal/handlers"
	"rescueplate/internal/middleware"
	"rescueplate/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Options configures the Fiber app built by NewApp.
type Options struct {
	AuthService    *services.AuthService
	ListingService *services.ListingService
	CORSOrigins    string
	// DisableLogger turns the request logger off, mostly for tests.
	DisableLogger bool
}

// NewApp builds the Fiber app with middleware, health check and API routes.
func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "RescuePlate API",
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if !opts.DisableLogger {
		app.Use(logger.New())
	}
	origins := opts.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "RescuePlate API is running",
		})
	})

	// --- API Routes ---
	authHandler := handlers.NewAuthHandler(opts.AuthService)
	authHandler.RegisterRoutes(app)

	listingHandler := handlers.NewListingHandler(opts.ListingService)
	listingHandler.RegisterRoutes(app, middleware.AuthRequired(opts.AuthService))

	return app
}

// errorHandler renders errors that escape the handlers as {"message": ...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{"message": message})
}
