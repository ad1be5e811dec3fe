package main

import (
	"asset_manager/internal/config" // Custom import path (Config)
	"asset_manager/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Run schema migration
}
