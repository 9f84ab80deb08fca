// Package gormstore persists the address pool and reference orders through gorm.
package gormstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (and migrates) a sqlite database at path. Use ":memory:" or a
// "file:...?mode=memory&cache=shared" DSN for tests.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && !isMemory(path) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY under concurrent checkouts.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&addressRow{}, &OrderRecord{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || (len(path) > 5 && path[:5] == "file:")
}

// Store implements the address pool and order persistence on top of gorm.
type Store struct {
	db      *gorm.DB
	metrics Metrics
}

func New(db *gorm.DB, metrics Metrics) (*Store, error) {
	if db == nil {
		return nil, errors.New("gorm db is required")
	}
	if metrics == nil {
		return nil, errors.New("store metrics is required")
	}
	return &Store{db: db, metrics: metrics}, nil
}
