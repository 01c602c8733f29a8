package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/yourusername/namecheck/db"
	"github.com/yourusername/namecheck/handlers"
	"github.com/yourusername/namecheck/middleware"
	"github.com/yourusername/namecheck/models"
	"github.com/yourusername/namecheck/services"
)

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	config, err := services.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := db.Connect(config.Database.URL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	userRepo := models.NewUserRepository(db.Current)
	usedRepo := models.NewUsedUsernameRepository(db.Current)
	settingsRepo := models.NewSiteSettingsRepository(db.Current)

	preserved, err := services.NewPreservedSource(config.Preserved, settingsRepo)
	if err != nil {
		log.Fatalf("Failed to set up preserved usernames source: %v", err)
	}
	matcher := services.NewPreservedMatcher(config.Preserved.PatternTTL)
	availability := services.NewAvailability(userRepo, usedRepo, preserved).
		WithMatcher(matcher).
		WithTimeout(config.Availability.QueryTimeout)

	usernameHandler := handlers.NewUsernameHandler(availability)
	adminHandler := handlers.NewAdminHandler(userRepo, availability).WithCache(preserved, matcher)

	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(cors.New())

	api := app.Group("/api", middleware.APIHeaders(), middleware.DBPing())

	api.Post("/username/available", usernameHandler.Available)
	api.Get("/username/available", usernameHandler.Available)

	// Admin (guarded in handler)
	api.Get("/admin/preserved-usernames/check", middleware.Protected(), adminHandler.CheckPreserved)
	api.Post("/admin/preserved-usernames/refresh", middleware.Protected(), adminHandler.RefreshPreserved)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	log.Printf("Server starting on port %s (preserved usernames from %s)", config.Server.Port, config.Preserved.Source)
	log.Fatal(app.Listen(":" + config.Server.Port))
}
