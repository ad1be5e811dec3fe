package db

import (
	"context" // Context for repository calls
	"errors"  // Error kind matching

	"asset_manager/internal/config"     // Configuration
	"asset_manager/internal/domain"     // Importing domain models
	"asset_manager/internal/repository" // Repository interfaces

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(&domain.User{}, &domain.Asset{}, &domain.Transaction{})
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}

// EnsureDefaultAdmin provisions the bootstrap admin account once at
// process start. Idempotent: a no-op when the account already exists
// or when no admin credentials are configured.
func EnsureDefaultAdmin(ctx context.Context, store repository.Store, cfg *config.Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil // No bootstrap admin configured
	}
	_, err := store.Users().GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil // Admin already provisioned
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := domain.User{
		Username: cfg.AdminUsername, // Bootstrap admin username
		Email:    cfg.AdminEmail,    // Bootstrap admin email
		Password: string(hash),      // Hashed password
		Role:     domain.RoleAdmin,  // Admin role
	}
	if err := store.Users().Create(ctx, &admin); err != nil {
		return err
	}
	logrus.WithField("username", admin.Username).Info("Default admin provisioned")
	return nil
}
