package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseType string

const (
	MongoDB DatabaseType = "mongodb"
	SQLite  DatabaseType = "sqlite"
)

const (
	DefaultAdminUser     = "admin"
	DefaultAdminPass     = "admin123"
	DefaultPort          = "3000"
	DefaultIPLookupURL   = "https://api.ipify.org?format=json"
	DefaultLookupTimeout = 5 * time.Second
)

type Config struct {
	DatabaseType DatabaseType
	DatabaseName string
	// MongoDB config
	MongoURI string
	// SQLite config
	SQLitePath string

	AdminUser string
	AdminPass string
	Port      string

	// Passed through to the capture page for client-side photo upload
	UploadURL    string
	UploadPreset string

	SessionSecret   string
	IPLookupURL     string
	IPLookupTimeout time.Duration
	StaticDir       string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	databaseName := getEnv("DATABASE_NAME", "geocapture")

	timeout := DefaultLookupTimeout
	if raw := os.Getenv("IP_LOOKUP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid IP_LOOKUP_TIMEOUT %q", raw)
		}
		timeout = d
	}

	config := &Config{
		DatabaseType:    DatabaseType(getEnv("DATABASE_TYPE", string(SQLite))),
		DatabaseName:    databaseName,
		AdminUser:       getEnv("ADMIN_USER", DefaultAdminUser),
		AdminPass:       getEnv("ADMIN_PASS", DefaultAdminPass),
		Port:            getEnv("PORT", DefaultPort),
		UploadURL:       getEnv("CLOUDINARY_URL", "https://api.cloudinary.com/v1_1/YOUR_CLOUD_NAME/image/upload"),
		UploadPreset:    getEnv("CLOUDINARY_UPLOAD_PRESET", "YOUR_UPLOAD_PRESET"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		IPLookupURL:     getEnv("IP_LOOKUP_URL", DefaultIPLookupURL),
		IPLookupTimeout: timeout,
		StaticDir:       getEnv("STATIC_DIR", "public"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
	}

	// Read regardless of backend; the migration command needs it in sqlite mode.
	config.MongoURI = os.Getenv("MONGO_URL")
	if config.MongoURI == "" {
		config.MongoURI = os.Getenv("MONGODB_URI")
	}

	// Configure based on database type
	switch config.DatabaseType {
	case MongoDB:
		if config.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URL is not set")
		}
	case SQLite:
		config.SQLitePath = getEnv("SQLITE_PATH", filepath.Join("data", fmt.Sprintf("%s.db", databaseName)))
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", config.DatabaseType)
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
