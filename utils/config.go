package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	App    AppConfig
	Server ServerConfig
	Auth   AuthConfig
	Usage  UsageConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port                 int
	MaxRequestsPerMinute int
}

// AuthConfig holds the service API key callers present on the lookup
// endpoints. This is the service's own key; Reddit credentials never live in
// configuration, they arrive in each request body.
type AuthConfig struct {
	APIKey string
}

// UsageConfig holds the lookup-usage journal configuration
type UsageConfig struct {
	DBPath string
}

// LoadConfig loads configuration from a .env file and the environment
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}

	// a missing .env is fine; the environment may already be populated
	if err := godotenv.Load(envPath); err != nil {
		log.WithField("file", envPath).Debug("No .env file loaded, using environment as-is")
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Reddit Lookup"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Server: ServerConfig{
			Port:                 getEnvAsInt("SERVER_PORT", 8080),
			MaxRequestsPerMinute: getEnvAsInt("MAX_REQUESTS_PER_MINUTE", 100),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		Usage: UsageConfig{
			DBPath: getEnv("USAGE_DB_PATH", "./usage.db"),
		},
	}

	// validation
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Auth.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable is required")
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if config.Server.MaxRequestsPerMinute < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_MINUTE must be positive")
	}
	if config.Usage.DBPath == "" {
		return fmt.Errorf("USAGE_DB_PATH must not be empty")
	}

	// if we are storing the journal in a nested directory, create the directory
	dbDir := filepath.Dir(config.Usage.DBPath)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create usage database directory: %w", err)
		}
	}

	return nil
}
