package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultCompressedSubDir = "compressed"
	DefaultThumbsSubDir     = "thumbs"
)

const (
	defaultJWTExpiryHours  = 24
	defaultCleanupInterval = 6 * time.Hour
	defaultCleanupGrace    = time.Hour
	defaultUploadRPS       = 2
	defaultUploadBurst     = 5
)

// AIConfig holds the settings for the external image-analysis collaborator.
// it is loaded once at startup and injected into the AI service; nothing
// else reads the AI environment variables.
type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Enabled reports whether the analysis service is configured at all
func (a AIConfig) Enabled() bool {
	return a.BaseURL != "" && a.APIKey != ""
}

type Config struct {
	// database path
	DatabasePath string

	// uploads storage configuration
	UploadsPath    string // root for originals; derived variants live below it
	CompressedPath string // full-calculated path for display variants
	ThumbsPath     string // full-calculated path for thumbnails

	// auth settings
	JWTSecret      string
	JWTExpiryHours int

	// orphan sweeper settings
	CleanupInterval time.Duration
	CleanupGrace    time.Duration

	// rate limiting for upload/analysis routes
	UploadRPS   int
	UploadBurst int

	// external AI analysis service
	AI AIConfig
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvDurationOrDefault(envVar string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %s. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "gallery.db")

	uploads := getEnvOrDefault("UPLOADS_PATH", filepath.Join(".", "uploads"))
	absUploads, err := filepath.Abs(uploads)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for uploads directory '%s': %w", uploads, err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		DatabasePath:    dbPath,
		UploadsPath:     absUploads,
		CompressedPath:  filepath.Join(absUploads, DefaultCompressedSubDir),
		ThumbsPath:      filepath.Join(absUploads, DefaultThumbsSubDir),
		JWTSecret:       jwtSecret,
		JWTExpiryHours:  getEnvIntOrDefault("JWT_EXPIRY_HOURS", defaultJWTExpiryHours),
		CleanupInterval: getEnvDurationOrDefault("CLEANUP_INTERVAL", defaultCleanupInterval),
		CleanupGrace:    getEnvDurationOrDefault("CLEANUP_GRACE", defaultCleanupGrace),
		UploadRPS:       getEnvIntOrDefault("UPLOAD_RPS", defaultUploadRPS),
		UploadBurst:     getEnvIntOrDefault("UPLOAD_BURST", defaultUploadBurst),
		AI: AIConfig{
			BaseURL: os.Getenv("AI_API_BASE_URL"),
			APIKey:  os.Getenv("AI_API_KEY"),
			Model:   getEnvOrDefault("AI_MODEL_NAME", "gpt-4o"),
		},
	}

	return cfg, nil
}
