package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/plannetic/ifaengine/internal/domain"
)

// AppConfig holds process configuration read from the environment.
type AppConfig struct {
	LogLevel           string
	LogPretty          bool
	Port               int
	DBPath             string
	DefaultSimulations int
	Workers            int // 0 means GOMAXPROCS
	BatchSize          int // 0 means the simulator default
	CatalogPath        string
}

// LoadAppConfig reads configuration from environment variables after
// loading any of the given .env files that exist. With no files it looks
// for .env in the working directory. Values already set in the process
// environment win over file values.
func LoadAppConfig(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &AppConfig{
		LogLevel:           getEnv("IFA_LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("IFA_LOG_PRETTY", false),
		Port:               getEnvAsInt("IFA_PORT", 8080),
		DBPath:             getEnv("IFA_DB_PATH", "./data/ifaengine.db"),
		DefaultSimulations: getEnvAsInt("IFA_DEFAULT_SIMULATIONS", domain.DefaultSimulationCount),
		Workers:            getEnvAsInt("IFA_WORKERS", 0),
		BatchSize:          getEnvAsInt("IFA_BATCH_SIZE", 0),
		CatalogPath:        getEnv("IFA_CATALOG_PATH", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *AppConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("IFA_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("IFA_DB_PATH is required")
	}
	if c.DefaultSimulations <= 0 {
		return fmt.Errorf("IFA_DEFAULT_SIMULATIONS must be positive, got %d", c.DefaultSimulations)
	}
	if c.Workers < 0 || c.BatchSize < 0 {
		return fmt.Errorf("IFA_WORKERS and IFA_BATCH_SIZE must not be negative")
	}
	return nil
}

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
