package models

import (
	"time"
)

// Review sources. Reviews from the Google Business Profile sync share this
// table; the import pipeline only ever writes SourceBooking rows.
const (
	SourceBooking = "booking"
	SourceGoogle  = "google"
)

// UploadLog statuses.
const (
	UploadStatusQueued     = "queued"
	UploadStatusProcessing = "processing"
	UploadStatusSuccess    = "success"
	UploadStatusError      = "error"
)

// MaxStoredErrors caps the number of per-row error messages persisted on an
// UploadLog. Rows past the cap still count as skipped.
const MaxStoredErrors = 10

// User mirrors the identity record created by the main application's OAuth
// flow. This service only reads it for ownership checks.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string { return "users" }

// Review is the imported review record, shared across ingestion sources.
// For booking rows uniqueness is enforced through ReservationIndex; the
// fingerprint column is a legacy defense-in-depth content hash.
type Review struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"type:varchar(255);not null;index" json:"user_id"`
	Source         string     `gorm:"type:varchar(50);index" json:"source"`
	ExternalID     string     `gorm:"type:varchar(255);index" json:"external_id"`
	ReviewerName   string     `gorm:"type:varchar(255)" json:"reviewer_name"`
	Title          string     `gorm:"type:varchar(255)" json:"title"`
	Text           string     `gorm:"type:text" json:"text"`
	Rating         *float64   `json:"rating"`          // normalized to the 0-5 scale
	OriginalRating *float64   `json:"original_rating"` // as found in the source file
	OriginalScale  string     `gorm:"type:varchar(16)" json:"original_scale"`
	LocationName   string     `gorm:"type:varchar(255)" json:"location_name"`
	Date           time.Time  `json:"date"`
	Reply          string     `gorm:"type:text" json:"reply"`
	Replied        bool       `gorm:"default:false" json:"replied"`
	IsAuto         bool       `gorm:"not null;default:false" json:"is_auto"`
	AutoOrigin     string     `gorm:"type:varchar(50)" json:"auto_origin"`
	Fingerprint    string     `gorm:"type:varchar(128);index" json:"fingerprint"`
	UploadLogID    *uint      `gorm:"index" json:"upload_log_id,omitempty"`
	UploadLog      *UploadLog `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (Review) TableName() string { return "review" }

// ReservationIndex records every booking reservation number already imported
// for a user. The composite uniqueness constraint is the sole mechanism
// preventing double-import of the same reservation across uploads.
type ReservationIndex struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_reservation_index_user_source_extid;index" json:"user_id"`
	Source     string    `gorm:"type:varchar(32);not null;default:'booking';uniqueIndex:uq_reservation_index_user_source_extid" json:"source"`
	ExternalID string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_reservation_index_user_source_extid" json:"external_id"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ReservationIndex) TableName() string { return "reservation_index" }

// UploadLog tracks one CSV upload attempt: queued at upload time, mutated by
// the background import job after each batch flush, finalized exactly once.
type UploadLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     string     `gorm:"type:varchar(255);not null;index" json:"user_id"`
	Source     string     `gorm:"type:varchar(32);not null;default:'booking';index" json:"source"`
	Filename   string     `gorm:"type:varchar(255)" json:"filename"`
	Filesize   int64      `json:"filesize"`
	Status     string     `gorm:"type:varchar(24);default:'queued'" json:"status"`
	Inserted   int        `gorm:"default:0" json:"inserted"`
	Duplicates int        `gorm:"default:0" json:"duplicates"`
	Skipped    int        `gorm:"default:0" json:"skipped"`
	StartedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ErrorsJSON string     `gorm:"type:text" json:"-"` // short JSON list of row errors
}

func (UploadLog) TableName() string { return "upload_log" }
