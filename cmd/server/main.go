package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"asset_manager/internal/api"        // Custom package for API handlers
	"asset_manager/internal/config"     // Custom package for configuration
	"asset_manager/internal/db"         // Custom package for migrations and bootstrap
	"asset_manager/internal/ledger"     // Ledger engine
	"asset_manager/internal/middleware" // Custom package for middleware
	"asset_manager/internal/report"     // Reporting engine
	"asset_manager/internal/repository" // Repository implementations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Wire the store and engines
	store := repository.NewGormStore(gdb)
	engine := ledger.New(store)
	reports := report.New(store)

	// Provision the bootstrap admin account (idempotent)
	if err := db.EnsureDefaultAdmin(context.Background(), store, cfg); err != nil {
		logrus.Fatalf("failed to provision default admin: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Public routes
	r.POST("/users", api.RegisterHandler(store))                  // Registration endpoint
	r.POST("/auth/login", api.LoginHandler(store, cfg.JWTSecret)) // Login endpoint

	// Authenticated routes (protected by JWT)
	authGroup := r.Group("")
	authGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authGroup.GET("/users", api.ListUsersHandler(store))                                      // User list endpoint
	authGroup.POST("/assets", api.CreateAssetHandler(store))                                  // Create asset endpoint
	authGroup.GET("/assets", api.ListAssetsHandler(store))                                    // Own assets endpoint
	authGroup.POST("/transactions", api.CreateTransactionHandler(engine, store, redisClient)) // Self-service ledger endpoint
	authGroup.GET("/transactions", api.ListTransactionsHandler(store))                        // Own transaction history endpoint
	authGroup.GET("/reports", api.MyReportHandler(reports, redisClient))                      // Own report endpoint
	authGroup.GET("/analytics/graphs", api.MyGraphsHandler(reports, redisClient))             // Own analytics endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(store))
	adminGroup.GET("/users", api.AdminListUsersHandler(store, redisClient))                          // User holdings endpoint
	adminGroup.GET("/transactions", api.AdminListTransactionsHandler(store, redisClient))            // Transaction log endpoint
	adminGroup.POST("/transactions", api.AdminCreateTransactionHandler(engine, store, redisClient)) // Admin ledger endpoint
	adminGroup.GET("/reports", api.AdminReportHandler(reports, redisClient))                        // Platform report endpoint
	adminGroup.GET("/analytics/graphs", api.AdminGraphsHandler(reports, redisClient))               // Platform analytics endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
