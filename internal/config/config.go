package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the migration tooling.
type Config struct {
	CMS      CMSConfig
	Upload   UploadConfig
	Database DatabaseConfig
	Import   ImportConfig
}

// CMSConfig holds connection settings for the CMS REST API.
type CMSConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// UploadConfig selects where downloaded assets are placed.
type UploadConfig struct {
	Provider  string // "cms" or "s3"
	Region    string
	Bucket    string
	Endpoint  string // custom endpoint for local/S3-compatible stores
	PublicURL string // base URL assets are served from when uploading direct to S3
}

// DatabaseConfig holds the CMS database connection used by the timestamp
// backfill, which writes below the content API.
type DatabaseConfig struct {
	Client   string // "postgres", "sqlite", "mongo"
	Host     string
	Port     int
	Name     string
	Username string
	Password string
	SSL      bool
	Filename string // sqlite database file
	URI      string // mongo connection string
}

// ImportConfig holds per-run import settings.
type ImportConfig struct {
	RedirectsFile string
	RetryCount    int
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		CMS: CMSConfig{
			BaseURL:  getEnv("PUBLIC_URL", "http://localhost:1337"),
			APIToken: getEnv("STRAPI_API_TOKEN", ""),
			Timeout:  getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		Upload: UploadConfig{
			Provider:  getEnv("UPLOAD_PROVIDER", "cms"),
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		Database: DatabaseConfig{
			Client:   getEnv("DATABASE_CLIENT", "postgres"),
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnvInt("DATABASE_PORT", 5432),
			Name:     getEnv("DATABASE_NAME", "strapi"),
			Username: getEnv("DATABASE_USERNAME", "strapi"),
			Password: getEnv("DATABASE_PASSWORD", ""),
			SSL:      getEnvBool("DATABASE_SSL", false),
			Filename: getEnv("DATABASE_FILENAME", ".tmp/data.db"),
			URI:      getEnv("DATABASE_URL", ""),
		},
		Import: ImportConfig{
			RedirectsFile: getEnv("REDIRECTS_FILE", "_redirects"),
			RetryCount:    getEnvInt("RETRY_COUNT", 3),
		},
	}

	return cfg, nil
}

// ValidateForImport checks the settings the import pipeline cannot run
// without. Called before any processing begins.
func (c *Config) ValidateForImport() error {
	if c.CMS.APIToken == "" {
		return fmt.Errorf("STRAPI_API_TOKEN is required, set it in the environment or .env file")
	}
	if c.Upload.Provider == "s3" && c.Upload.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when UPLOAD_PROVIDER=s3")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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
