package database

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"driftwood/auth"
	"driftwood/models"
)

func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Post{},
		&models.AdminUser{},
	)
}

// SeedAdmin creates the admin credential record on first startup. If a
// record with the configured username already exists, nothing happens.
func SeedAdmin(db *gorm.DB, username, password string, log *zap.Logger) error {
	var existing models.AdminUser
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("looking up admin user: %w", err)
	}

	if password == "" {
		return fmt.Errorf("no admin user exists and ADMIN_PASSWORD is not set")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	admin := models.AdminUser{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	log.Info("seeded admin user", zap.String("username", username))
	return nil
}
