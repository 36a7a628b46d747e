package server

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend selectors for Config.StorageBackend.
const (
	StorageBackendFS = "fs"
	StorageBackendS3 = "s3"
)

// Config holds all runtime configuration for the service. It is built once
// in main and injected into every component; nothing reads the environment
// after startup.
type Config struct {
	Addr    string // e.g. ":8080"
	BaseURL string // externally visible base URL, used in the usage text

	MaxUploadBytes  int64         // upload size ceiling
	Expiry          time.Duration // TTL for uploaded archives
	CleanupInterval time.Duration // sweep period

	DatabaseURL string

	StorageBackend string // "fs" or "s3"
	DataDir        string // blob root for the fs backend

	// S3-compatible object storage (MinIO locally).
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
}

// LoadConfig reads configuration from a .env file (if present) and
// environment variables, applying defaults where unset.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("service=config msg=%q", "no .env file, reading environment")
	}

	cfg := Config{
		Addr:           getenvDefault("CM_ADDR", ":8080"),
		BaseURL:        getenvDefault("CM_BASE_URL", "http://localhost:8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StorageBackend: getenvDefault("CM_STORAGE_BACKEND", StorageBackendFS),
		DataDir:        getenvDefault("CM_DATA_DIR", "data/uploads"),
		S3Endpoint:     os.Getenv("CM_S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("CM_S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("CM_S3_SECRET_KEY"),
		S3Bucket:       os.Getenv("CM_S3_BUCKET"),
	}

	// 59 MiB default, chosen to stay under common reverse-proxy body limits.
	maxBytes := int64(59 << 20)
	if v := os.Getenv("CM_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid CM_MAX_UPLOAD_BYTES: %q", v)
		}
		maxBytes = n
	}
	cfg.MaxUploadBytes = maxBytes

	expiry := 24 * time.Hour
	if v := os.Getenv("CM_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CM_EXPIRY: %q", v)
		}
		expiry = d
	}
	cfg.Expiry = expiry

	interval := time.Hour
	if v := os.Getenv("CM_CLEANUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid CM_CLEANUP_INTERVAL: %q", v)
		}
		interval = d
	}
	cfg.CleanupInterval = interval

	switch cfg.StorageBackend {
	case StorageBackendFS:
		// DataDir default is fine.
	case StorageBackendS3:
		if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" || cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("s3 backend selected but CM_S3_* configuration incomplete")
		}
	default:
		return Config{}, fmt.Errorf("unknown CM_STORAGE_BACKEND: %q", cfg.StorageBackend)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is empty")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
