// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	Port     int
	LogLevel string
	DevMode  bool

	// FallbackUsdTryRate is used when the exchange-rate feed is unavailable.
	// The valuation path never falls back silently; this value is the single
	// explicit source of the default.
	FallbackUsdTryRate float64

	// PriceFallbackToAvgCost controls whether a holding with no quote may be
	// valued at its average cost instead of being reported as pending.
	PriceFallbackToAvgCost bool

	Backup BackupConfig
}

// BackupConfig holds cloud backup configuration.
// Backup is disabled when Bucket is empty. Endpoint and the static key pair
// are optional and support S3-compatible stores; when unset the SDK's default
// credential chain is used.
type BackupConfig struct {
	Bucket    string
	Region    string
	KeyPrefix string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether cloud backup is configured.
func (c BackupConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PORTFOY_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".portfoy")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                absDataDir,
		Port:                   getEnvAsInt("PORTFOY_PORT", 8080),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		DevMode:                getEnvAsBool("DEV_MODE", false),
		FallbackUsdTryRate:     getEnvAsFloat("FALLBACK_USD_TRY_RATE", 35.0),
		PriceFallbackToAvgCost: getEnvAsBool("PRICE_FALLBACK_TO_AVG_COST", false),
		Backup: BackupConfig{
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			Region:    getEnv("BACKUP_S3_REGION", "eu-central-1"),
			KeyPrefix: getEnv("BACKUP_S3_PREFIX", "portfoy-backups"),
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		},
	}

	if cfg.FallbackUsdTryRate <= 0 {
		return nil, fmt.Errorf("FALLBACK_USD_TRY_RATE must be positive, got %v", cfg.FallbackUsdTryRate)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return fallback
	}
	return value
}
