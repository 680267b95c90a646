package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/greenside/backend/internal/api"
	"github.com/greenside/backend/internal/config"
	"github.com/greenside/backend/internal/database"
	"github.com/greenside/backend/internal/game"
	"github.com/greenside/backend/internal/migrations"
	"github.com/greenside/backend/internal/redis"
	"github.com/greenside/backend/internal/ws"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// The course catalog lives in Postgres; the built-in courses keep the
	// server playable when it is unavailable.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("Database unavailable, serving built-in courses only: %v", err)
		db = nil
	} else {
		defer db.Close()
		if os.Getenv("MIGRATE_ON_START") == "true" {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, snapshot mirroring disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	game.InitializeManager(db, rdb, cfg)
	game.Manager.StartExpiryChecker(context.Background())

	// Wire Redis into the WS layer and fan cross-instance events out
	ws.SetRedisClient(rdb, cfg)
	ws.StartGolfEventSubscriber(context.Background())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Greenside server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
