package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"comentsia-go/internal/config"
	"comentsia-go/internal/database"
	"comentsia-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload receiver errors, mapped to HTTP statuses by the handlers.
var (
	ErrBadExtension = errors.New("unsupported file extension")
	ErrFileTooLarge = errors.New("file too large")
)

// UploadService accepts CSV uploads: it validates the file, copies it to a
// scratch location in fixed-size chunks and creates the tracking UploadLog.
// Actual processing is deferred to the ImportService.
type UploadService struct {
	cfg *config.Config
	log *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(cfg *config.Config, log *zap.Logger) *UploadService {
	return &UploadService{cfg: cfg, log: log}
}

// Receive validates and persists an uploaded CSV. It returns the queued
// UploadLog and the scratch file path the import job will consume. The
// scratch file is removed if anything fails.
func (s *UploadService) Receive(userID, originalName, contentType string, src io.Reader, size int64) (*models.UploadLog, string, error) {
	if !strings.HasSuffix(strings.ToLower(originalName), ".csv") {
		return nil, "", ErrBadExtension
	}
	if size > s.cfg.Upload.MaxFileBytes {
		return nil, "", ErrFileTooLarge
	}

	// MIME mismatch is advisory only; browsers disagree on the CSV type.
	if contentType != "" && !s.mimeAllowed(contentType) {
		s.log.Warn("Unexpected upload content type",
			zap.String("content_type", contentType),
			zap.String("user_id", userID))
	}

	scratchName := fmt.Sprintf("booking_%d_%s_%s",
		time.Now().Unix(), uuid.NewString()[:8], sanitizeFilename(originalName))
	scratchPath := filepath.Join(s.cfg.Upload.TmpDir, scratchName)

	written, err := s.copyToScratch(scratchPath, src)
	if err != nil {
		os.Remove(scratchPath)
		if errors.Is(err, ErrFileTooLarge) {
			return nil, "", ErrFileTooLarge
		}
		return nil, "", fmt.Errorf("failed to write scratch file: %w", err)
	}

	upload := models.UploadLog{
		UserID:    userID,
		Source:    models.SourceBooking,
		Filename:  truncate(originalName, 255),
		Filesize:  written,
		Status:    models.UploadStatusQueued,
		StartedAt: time.Now().UTC(),
	}
	if err := database.DB.Create(&upload).Error; err != nil {
		os.Remove(scratchPath)
		return nil, "", fmt.Errorf("failed to create upload log: %w", err)
	}

	s.log.Info("Upload received",
		zap.Uint("upload_id", upload.ID),
		zap.String("user_id", userID),
		zap.String("filename", upload.Filename),
		zap.Int64("size", written),
	)
	return &upload, scratchPath, nil
}

// copyToScratch streams src to path in chunk-sized pieces, never holding the
// full content in memory, and enforces the size ceiling on the actual bytes.
func (s *UploadService) copyToScratch(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	limited := io.LimitReader(src, s.cfg.Upload.MaxFileBytes+1)
	buf := make([]byte, s.cfg.Import.ReadChunkSize)
	written, err := io.CopyBuffer(dst, limited, buf)
	if err != nil {
		return written, err
	}
	if written > s.cfg.Upload.MaxFileBytes {
		return written, ErrFileTooLarge
	}
	if err := dst.Close(); err != nil {
		return written, err
	}
	return written, nil
}

func (s *UploadService) mimeAllowed(contentType string) bool {
	mime := strings.TrimSpace(strings.Split(contentType, ";")[0])
	for _, allowed := range s.cfg.Upload.AllowedMIMEs {
		if strings.EqualFold(mime, allowed) {
			return true
		}
	}
	return false
}

// ListUploads returns the caller's most recent booking uploads, newest first.
func (s *UploadService) ListUploads(userID string) ([]models.UploadLog, error) {
	var uploads []models.UploadLog
	err := database.DB.
		Where("user_id = ? AND source = ?", userID, models.SourceBooking).
		Order("started_at DESC").
		Limit(100).
		Find(&uploads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}

// DeleteUpload hard-deletes one of the caller's upload logs. Reviews already
// imported keep existing; their upload_log_id is nulled by the FK. Returns
// gorm.ErrRecordNotFound when the row does not exist or is not owned.
func (s *UploadService) DeleteUpload(userID string, id uint) error {
	var upload models.UploadLog
	err := database.DB.
		Where("id = ? AND user_id = ? AND source = ?", id, userID, models.SourceBooking).
		First(&upload).Error
	if err != nil {
		return err
	}

	if err := database.DB.Delete(&upload).Error; err != nil {
		return fmt.Errorf("failed to delete upload log: %w", err)
	}

	s.log.Info("Upload log deleted",
		zap.Uint("upload_id", id),
		zap.String("user_id", userID))
	return nil
}

// CountReviews counts the caller's imported booking reviews.
func (s *UploadService) CountReviews(userID string) (int64, error) {
	var count int64
	err := database.DB.Model(&models.Review{}).
		Where("user_id = ? AND source = ?", userID, models.SourceBooking).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// sanitizeFilename keeps a conservative character set from the original
// filename for use inside the scratch file name.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || out == "." {
		out = "upload.csv"
	}
	return truncate(out, 120)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
