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
	OutputDir    string // Directory receiving every run artifact (always absolute)
	LogLevel     string
	LogPretty    bool
	Workers      int    // Concurrent segment generations; 0 = one per segment
	DBPath       string // SQLite run store; empty disables persistence
	StoreRecords bool   // Also persist every investor record in the run store
	Metrics      bool   // Write a Prometheus textfile per run
	S3           *S3Config
}

// S3Config holds artifact publishing configuration for S3-compatible storage
// (AWS S3, Cloudflare R2, MinIO).
type S3Config struct {
	Bucket          string
	Endpoint        string // Empty = AWS default endpoint resolution
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether a bucket has been configured
func (c *S3Config) Enabled() bool {
	return c != nil && c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	outputDir, err := filepath.Abs(getEnv("FUNDSIM_OUTPUT_DIR", "output"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}

	cfg := &Config{
		OutputDir:    outputDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", true),
		Workers:      getEnvAsInt("FUNDSIM_WORKERS", 0),
		DBPath:       getEnv("FUNDSIM_DB_PATH", ""),
		StoreRecords: getEnvAsBool("FUNDSIM_DB_STORE_RECORDS", false),
		Metrics:      getEnvAsBool("FUNDSIM_METRICS", true),
		S3:           loadS3Config(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("FUNDSIM_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.S3.Enabled() && (c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "") {
		return fmt.Errorf("S3 bucket %q configured without credentials", c.S3.Bucket)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func loadS3Config() *S3Config {
	return &S3Config{
		Bucket:          getEnv("FUNDSIM_S3_BUCKET", ""),
		Endpoint:        getEnv("FUNDSIM_S3_ENDPOINT", ""),
		Region:          getEnv("FUNDSIM_S3_REGION", "auto"),
		AccessKeyID:     getEnv("FUNDSIM_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("FUNDSIM_S3_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("FUNDSIM_S3_PREFIX", "fundsim"),
	}
}
