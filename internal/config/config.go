package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Import    ImportConfig
	Session   SessionConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database configuration. Driver is "sqlite" or
// "postgres"; Path is the sqlite file, DSN the postgres connection string.
type DatabaseConfig struct {
	Driver          string
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// UploadConfig holds upload receiver configuration
type UploadConfig struct {
	MaxFileBytes int64
	TmpDir       string
	AllowedMIMEs []string
}

// ImportConfig holds background import job tuning
type ImportConfig struct {
	BatchSize       int
	LookupChunkSize int
	ReadChunkSize   int
	InterBatchSleep time.Duration
}

// SessionConfig holds session-cookie validation configuration. The session
// JWT is minted by the main application with the same shared secret.
type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from the environment, reading a .env file first
// when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("COMENTSIA_PORT", 8080),
			Host:         getEnv("COMENTSIA_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("COMENTSIA_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("COMENTSIA_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("COMENTSIA_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Path:            getEnv("DB_PATH", "data/comentsia.db"),
			DSN:             getEnv("DB_DSN", ""),
			MaxOpenConns:    getEnvInt("COMENTSIA_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("COMENTSIA_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("COMENTSIA_CONN_MAX_LIFETIME", 1*time.Hour),
		},
		Upload: UploadConfig{
			MaxFileBytes: getEnvInt64("COMENTSIA_MAX_FILE_BYTES", 2_000_000),
			TmpDir:       getEnv("UPLOAD_TMP_DIR", "/tmp"),
			AllowedMIMEs: []string{"text/csv", "application/csv", "application/vnd.ms-excel", "text/plain"},
		},
		Import: ImportConfig{
			BatchSize:       getEnvInt("COMENTSIA_IMPORT_BATCH_SIZE", 400),
			LookupChunkSize: getEnvInt("COMENTSIA_IMPORT_LOOKUP_CHUNK", 900),
			ReadChunkSize:   getEnvInt("COMENTSIA_IMPORT_READ_CHUNK", 150*1024),
			InterBatchSleep: getEnvDuration("COMENTSIA_IMPORT_BATCH_SLEEP", 50*time.Millisecond),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "comentsia_session"),
			TTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("COMENTSIA_LOG_LEVEL", "info"),
			Format: getEnv("COMENTSIA_LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1024 and 65535, got %d", c.Server.Port)
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET must be set")
	}

	switch c.Database.Driver {
	case "sqlite":
		// Path default is fine.
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN must be set when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", c.Upload.MaxFileBytes)
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("import batch size must be positive, got %d", c.Import.BatchSize)
	}
	if c.Import.LookupChunkSize <= 0 {
		return fmt.Errorf("import lookup chunk size must be positive, got %d", c.Import.LookupChunkSize)
	}
	if c.Import.ReadChunkSize <= 0 {
		return fmt.Errorf("import read chunk size must be positive, got %d", c.Import.ReadChunkSize)
	}

	return nil
}

// resolvePaths resolves directory paths to absolute paths
func (c *Config) resolvePaths() error {
	var err error

	c.Upload.TmpDir, err = filepath.Abs(c.Upload.TmpDir)
	if err != nil {
		return fmt.Errorf("failed to resolve upload tmp directory: %w", err)
	}

	if c.Database.Driver == "sqlite" {
		c.Database.Path, err = filepath.Abs(c.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
