package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"comentsia-go/internal/config"
	"comentsia-go/internal/database"
	"comentsia-go/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package database handle at a fresh sqlite file
// under the test's temp directory.
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	tables := []interface{}{
		&models.User{},
		&models.UploadLog{},
		&models.Review{},
		&models.ReservationIndex{},
	}
	for _, table := range tables {
		if err := db.AutoMigrate(table); err != nil {
			t.Fatalf("migrate %T: %v", table, err)
		}
	}

	database.DB = db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileBytes: 2_000_000,
			TmpDir:       t.TempDir(),
			AllowedMIMEs: []string{"text/csv", "text/plain"},
		},
		Import: config.ImportConfig{
			BatchSize:       400,
			LookupChunkSize: 900,
			ReadChunkSize:   150 * 1024,
			InterBatchSleep: time.Millisecond,
		},
	}
}

// newUploadLog creates a queued upload log row the way the receiver does.
func newUploadLog(t *testing.T, userID string) *models.UploadLog {
	t.Helper()
	upload := models.UploadLog{
		UserID:    userID,
		Source:    models.SourceBooking,
		Filename:  "reviews.csv",
		Status:    models.UploadStatusQueued,
		StartedAt: time.Now().UTC(),
	}
	if err := database.DB.Create(&upload).Error; err != nil {
		t.Fatalf("create upload log: %v", err)
	}
	return &upload
}

// writeScratch writes CSV content to a scratch file the import can consume
// (and will remove).
func writeScratch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scratch.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write scratch: %v", err)
	}
	return path
}
