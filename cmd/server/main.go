package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"mdm-backend/internal/admin"
	"mdm-backend/internal/auth"
	"mdm-backend/internal/config"
	"mdm-backend/internal/rules"
	"mdm-backend/internal/store"
	"mdm-backend/internal/validation"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s:%d/%s)", cfg.Server.Port, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	log.Println("System tables ready")

	repo := rules.NewRepository(db.Pool)
	cache := validation.NewCache(time.Duration(cfg.Validation.CacheTTLSeconds) * time.Second)
	registry := validation.DefaultRegistry()
	service := validation.NewService(repo, cache, registry, cfg.Validation.NestedSourceSystems)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes are open; everything else requires a token.
	authHandler := auth.NewHandler(db, cfg.JWTSecret)
	auth.RegisterRoutes(app, authHandler)

	authMW := auth.Middleware(cfg.JWTSecret)
	adminMW := auth.RequireAdmin()

	adminHandler := admin.NewHandler(db, repo, cache)
	admin.RegisterAdminRoutes(app, adminHandler, authMW, adminMW)

	validationHandler := validation.NewHandler(service)
	validation.RegisterRoutes(app, validationHandler, authMW)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *validation.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(validation.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(validation.ErrorResponse{
		Error: &validation.AppError{Code: "INTERNAL_ERROR", Message: "Internal server error"},
	})
}
