package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"smart-notes-platform/models"
)

// Config carries every runtime option for the intake API and the extraction
// worker. It is constructed once in main and passed to components
// explicitly; there are no process-wide singletons.
type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Index store (MongoDB)
	MongoURI string
	DBName   string

	// Queue backing store (Redis / asynq)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Blob store
	BlobBackend    string // "local" or "gcs"
	FileStorageDir string
	GCSBucket      string

	// Upload validation
	AllowedTypes []string
	MaxFileSize  int64

	// Worker / queue behavior
	VisibilityTimeout time.Duration
	MaxDeliveryCount  int
	WorkerConcurrency int

	// Extraction
	OCRLanguage string
	OCRTimeout  time.Duration

	// Search
	SearchLimit   int
	SnippetRadius int

	// Reconciliation sweep
	ReconcileInterval time.Duration
	UploadGracePeriod time.Duration

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Tracing
	OTELEnabled  bool
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/smart_notes"),
		DBName:   getEnv("DB_NAME", "smart_notes"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		BlobBackend:    getEnv("BLOB_BACKEND", "local"),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		GCSBucket:      getEnv("GCS_BUCKET", ""),

		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf,image/png,image/jpeg,image/tiff,image/bmp"), ","),
		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB

		VisibilityTimeout: getEnvDuration("VISIBILITY_TIMEOUT", 10*time.Minute),
		MaxDeliveryCount:  getEnvInt("MAX_DELIVERY_COUNT", 5),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),

		OCRLanguage: getEnv("OCR_LANGUAGE", "eng"),
		OCRTimeout:  getEnvDuration("OCR_TIMEOUT", 5*time.Minute),

		SearchLimit:   getEnvInt("SEARCH_LIMIT", 50),
		SnippetRadius: getEnvInt("SNIPPET_RADIUS", 60),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute),
		UploadGracePeriod: getEnvDuration("UPLOAD_GRACE_PERIOD", 2*time.Minute),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.BlobBackend != "local" && cfg.BlobBackend != "gcs" {
		return nil, fmt.Errorf("BLOB_BACKEND must be \"local\" or \"gcs\", got %q", cfg.BlobBackend)
	}
	if cfg.BlobBackend == "gcs" && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET is required when BLOB_BACKEND=gcs")
	}
	if cfg.MaxDeliveryCount < 1 {
		return nil, fmt.Errorf("MAX_DELIVERY_COUNT must be at least 1")
	}
	for i, t := range cfg.AllowedTypes {
		cfg.AllowedTypes[i] = strings.TrimSpace(t)
	}
	for _, t := range cfg.AllowedTypes {
		if _, ok := models.SupportedFormats[t]; !ok {
			return nil, fmt.Errorf("ALLOWED_FILE_TYPES entry %q has no extractor", t)
		}
	}

	return cfg, nil
}

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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
