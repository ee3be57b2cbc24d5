package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"comentsia-go/internal/config"
	"comentsia-go/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the database connection and runs migrations. TranslateError
// is enabled so uniqueness violations surface as gorm.ErrDuplicatedKey
// regardless of driver.
func Initialize(cfg *config.Config, log *zap.Logger) error {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // zap is the logging path
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var err error
	switch cfg.Database.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.Database.DSN), gormCfg)
	default:
		dbDir := filepath.Dir(cfg.Database.Path)
		if dbDir != "." && dbDir != "" {
			if mkErr := os.MkdirAll(dbDir, 0755); mkErr != nil {
				return fmt.Errorf("failed to create database directory: %w", mkErr)
			}
		}
		DB, err = gorm.Open(sqlite.Open(cfg.Database.Path), gormCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if cfg.Database.Driver == "sqlite" {
		// WAL keeps the web handlers readable while an import job writes.
		if err := DB.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if err := DB.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := runMigrations(log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database initialized successfully",
		zap.String("driver", cfg.Database.Driver))
	return nil
}

// runMigrations runs database migrations
func runMigrations(log *zap.Logger) error {
	tables := []interface{}{
		&models.User{},
		&models.UploadLog{},
		&models.Review{},
		&models.ReservationIndex{},
	}

	for _, table := range tables {
		if err := DB.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", table, err)
		}
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}

// createIndexes creates composite indexes that GORM doesn't create automatically
func createIndexes() error {
	indexes := []string{
		// Review lookups are always scoped by owner and source.
		"CREATE INDEX IF NOT EXISTS idx_review_user_source ON review(user_id, source)",
		"CREATE INDEX IF NOT EXISTS idx_review_user_source_extid ON review(user_id, source, external_id)",

		// Upload listing: newest first per user/source.
		"CREATE INDEX IF NOT EXISTS idx_upload_log_user_source_started ON upload_log(user_id, source, started_at)",
	}

	for _, indexSQL := range indexes {
		if err := DB.Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// IsDuplicateKey reports whether err is a uniqueness-constraint violation.
// The string checks cover drivers where GORM's error translation misses.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE constraint failed") ||
		strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint")
}

// RetryWithBackoff retries a database operation with exponential backoff on
// sqlite "database is locked" errors.
func RetryWithBackoff(maxRetries int, initialDelay time.Duration, fn func() error) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if isDatabaseLocked(err) && i < maxRetries-1 {
			time.Sleep(delay)
			delay *= 2
			continue
		}

		return err
	}

	return err
}

// isDatabaseLocked checks if the error is a database locked error
func isDatabaseLocked(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database locked")
}
