package e2e

import (
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for E2E tests
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	DriveID      string
	SiteURL      string
	TestDir      string
	Timeout      time.Duration
	Cleanup      bool
}

// LoadConfig loads E2E test configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		TenantID:     os.Getenv("SPSYNC_E2E_TENANT_ID"),
		ClientID:     os.Getenv("SPSYNC_E2E_CLIENT_ID"),
		ClientSecret: os.Getenv("SPSYNC_E2E_CLIENT_SECRET"),
		DriveID:      os.Getenv("SPSYNC_E2E_DRIVE_ID"),
		SiteURL:      os.Getenv("SPSYNC_E2E_SITE_URL"),
		TestDir:      getEnvOrDefault("SPSYNC_E2E_TEST_DIR", "E2E-Tests"),
		Timeout:      getTimeoutFromEnv("SPSYNC_E2E_TIMEOUT", 300*time.Second),
		Cleanup:      getBoolFromEnv("SPSYNC_E2E_CLEANUP", true),
	}
}

// Missing returns the names of required variables that are not set, in a
// fixed order.
func (c *Config) Missing() []string {
	required := []struct{ name, value string }{
		{"SPSYNC_E2E_TENANT_ID", c.TenantID},
		{"SPSYNC_E2E_CLIENT_ID", c.ClientID},
		{"SPSYNC_E2E_CLIENT_SECRET", c.ClientSecret},
		{"SPSYNC_E2E_DRIVE_ID", c.DriveID},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getTimeoutFromEnv parses timeout from environment variable
func getTimeoutFromEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getBoolFromEnv parses boolean from environment variable
func getBoolFromEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return result
}
