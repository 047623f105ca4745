package config

import (
	"fmt"

	"food-rescue-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN builds a shared-cache in-memory sqlite DSN. Distinct names give distinct databases.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

// OpenDB opens the in-memory store and migrates all models. The pool is pinned to a
// single connection that never expires, otherwise sqlite drops the database.
func OpenDB(name string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(MemoryDSN(name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	// Auto-migrate all models
	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.DropoffSession{},
		&models.Booking{},
		&models.BookingStatusHistory{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
