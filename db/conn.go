// Package db contains things related to SQLite
package db

import (
	"errors"
	"fmt"
	"time"

	"fileshare/media-api/model"
	"fileshare/media-api/security"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(viper.GetString("db.path")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}

	err = db.AutoMigrate(model.User{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	if err := bootstrapAdmin(db); err != nil {
		return nil, err
	}

	return db, nil
}

// bootstrapAdmin creates the first admin account from config when the
// user table is empty, so a fresh deployment is immediately usable.
func bootstrapAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(model.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users, %w", err)
	}

	if count > 0 {
		return nil
	}

	username := viper.GetString("admin.username")
	password := viper.GetString("admin.password")
	if username == "" || password == "" {
		return errors.New("no users exist and no bootstrap admin credentials are configured")
	}

	hash, err := security.New().GenerateFromPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap admin password, %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate admin ID, %w", err)
	}

	err = db.Create(&model.User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin, %w", err)
	}

	zap.L().Warn("Created bootstrap admin account, change its password after first login",
		zap.String("username", username))
	return nil
}
