package utils

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvPath = "./test.env"

func cleanup() {
	os.Remove(testEnvPath)
}

// TestMain handles test setup and cleanup for all tests in this package
func TestMain(m *testing.M) {
	exitCode := m.Run()

	cleanup()

	os.Exit(exitCode)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_ENV_VAR", "test-value")
	defer os.Unsetenv("TEST_ENV_VAR")

	value := getEnv("TEST_ENV_VAR", "default-value")
	assert.Equal(t, "test-value", value)

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	assert.Equal(t, "default-value", value)
}

func TestGetEnvAsInt(t *testing.T) {
	os.Setenv("TEST_INT_VAR", "42")
	defer os.Unsetenv("TEST_INT_VAR")

	value := getEnvAsInt("TEST_INT_VAR", 10)
	assert.Equal(t, 42, value)

	os.Setenv("TEST_INVALID_INT_VAR", "not-an-int")
	defer os.Unsetenv("TEST_INVALID_INT_VAR")

	value = getEnvAsInt("TEST_INVALID_INT_VAR", 10)
	assert.Equal(t, 10, value)

	value = getEnvAsInt("NON_EXISTENT_VAR", 10)
	assert.Equal(t, 10, value)
}

func TestValidateConfig(t *testing.T) {
	// valid
	validConfig := &Config{
		Server: ServerConfig{
			Port:                 8080,
			MaxRequestsPerMinute: 100,
		},
		Auth: AuthConfig{
			APIKey: "secret-key",
		},
		Usage: UsageConfig{
			DBPath: "./test-usage.db",
		},
	}
	assert.NoError(t, validateConfig(validConfig))

	// missing API key
	invalidConfig := &Config{
		Server: ServerConfig{Port: 8080, MaxRequestsPerMinute: 100},
		Usage:  UsageConfig{DBPath: "./test-usage.db"},
	}
	err := validateConfig(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")

	// bad port
	invalidConfig = &Config{
		Server: ServerConfig{Port: 0, MaxRequestsPerMinute: 100},
		Auth:   AuthConfig{APIKey: "secret-key"},
		Usage:  UsageConfig{DBPath: "./test-usage.db"},
	}
	err = validateConfig(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")

	// bad rate limit
	invalidConfig = &Config{
		Server: ServerConfig{Port: 8080, MaxRequestsPerMinute: 0},
		Auth:   AuthConfig{APIKey: "secret-key"},
		Usage:  UsageConfig{DBPath: "./test-usage.db"},
	}
	err = validateConfig(invalidConfig)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_REQUESTS_PER_MINUTE")
}

func TestLoadConfig(t *testing.T) {
	envContent := `API_KEY=test-api-key
SERVER_PORT=9090
MAX_REQUESTS_PER_MINUTE=50
USAGE_DB_PATH=./test-usage.db
APP_NAME=Test Lookup
`
	require.NoError(t, os.WriteFile(testEnvPath, []byte(envContent), 0644))
	defer func() {
		for _, key := range []string{"API_KEY", "SERVER_PORT", "MAX_REQUESTS_PER_MINUTE", "USAGE_DB_PATH", "APP_NAME"} {
			os.Unsetenv(key)
		}
	}()

	config, err := LoadConfig(testEnvPath, testLogger())
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", config.Auth.APIKey)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 50, config.Server.MaxRequestsPerMinute)
	assert.Equal(t, "./test-usage.db", config.Usage.DBPath)
	assert.Equal(t, "Test Lookup", config.App.Name)
}

func TestLoadConfigMissingAPIKey(t *testing.T) {
	os.Unsetenv("API_KEY")

	_, err := LoadConfig("./does-not-exist.env", testLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}
