// Package config loads the service configuration from environment variables
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport selects how the service is exposed.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
)

const DefaultRegistryBaseURL = "https://israeldrugs.health.gov.il/GovServiceList/IDRServer/"

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	Transport         Transport

	RegistryBaseURL    string
	RegistryTimeout    time.Duration
	RegistryMaxRetries int
	RegistryRatePerSec float64 // outbound requests per second to the registry
	RegistryBurst      int64

	MaxResults           int // cap on drugs returned per search
	SuggestLimit         int // default number of autocomplete suggestions
	ProbeIntervalMinutes int
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(getEnvWithDefault("ENV", "dev")),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 100*1024*1024),
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1024*1024),
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1024*1024),
		Transport:         Transport(strings.ToLower(getEnvWithDefault("TRANSPORT", string(TransportHTTP)))),

		RegistryBaseURL:    getEnvWithDefault("REGISTRY_BASE_URL", DefaultRegistryBaseURL),
		RegistryTimeout:    getDurationEnvWithDefault("REGISTRY_TIMEOUT", 15*time.Second),
		RegistryMaxRetries: getIntEnvWithDefault("REGISTRY_MAX_RETRIES", 2),
		RegistryRatePerSec: getFloatEnvWithDefault("REGISTRY_RATE_PER_SEC", 5),
		RegistryBurst:      getInt64EnvWithDefault("REGISTRY_BURST", 10),

		MaxResults:           getIntEnvWithDefault("MAX_RESULTS", 50),
		SuggestLimit:         getIntEnvWithDefault("SUGGEST_LIMIT", 10),
		ProbeIntervalMinutes: getIntEnvWithDefault("PROBE_INTERVAL_MINUTES", 10),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsStdio reports whether the service speaks MCP over stdin/stdout.
func (c *Config) IsStdio() bool {
	return c.Transport == TransportStdio
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	checks := []struct {
		name string
		err  error
	}{
		{"PORT", validatePort(cfg.Port)},
		{"ADDRESS", validateAddress(cfg.Address)},
		{"ENV", validateOneOf(cfg.Env, "dev", "staging", "prod", "test")},
		{"LOG_LEVEL", validateOneOf(cfg.LogLevel, "debug", "info", "warn", "error")},
		{"TRANSPORT", validateOneOf(string(cfg.Transport), string(TransportHTTP), string(TransportStdio))},
		{"MAX_REQUEST_BODY", validateSizeLimit(cfg.MaxRequestBody)},
		{"MAX_HEADER_SIZE", validateSizeLimit(cfg.MaxHeaderSize)},
		{"LOG_RETENTION_WEEKS", validateRange(cfg.LogRetentionWeeks, 1, 52)},
		{"MAX_LOG_FILE_SIZE", validateMaxLogFileSize(cfg.MaxLogFileSize)},
		{"REGISTRY_BASE_URL", validateBaseURL(cfg.RegistryBaseURL)},
		{"REGISTRY_TIMEOUT", validateTimeout(cfg.RegistryTimeout)},
		{"REGISTRY_MAX_RETRIES", validateRange(cfg.RegistryMaxRetries, 0, 10)},
		{"REGISTRY_RATE_PER_SEC", validateRate(cfg.RegistryRatePerSec)},
		{"REGISTRY_BURST", validateRange(int(cfg.RegistryBurst), 1, 1000)},
		{"MAX_RESULTS", validateRange(cfg.MaxResults, 1, 500)},
		{"SUGGEST_LIMIT", validateRange(cfg.SuggestLimit, 1, 100)},
		{"PROBE_INTERVAL_MINUTES", validateRange(cfg.ProbeIntervalMinutes, 1, 1440)},
	}

	for _, c := range checks {
		if c.err != nil {
			return fmt.Errorf("invalid %s: %w", c.name, c.err)
		}
	}
	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress accepts loopback names and private or loopback IPs
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}
	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

func validateOneOf(value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("must be one of: %v, got: %q", allowed, value)
}

func validateRange(n, lo, hi int) error {
	if n < lo || n > hi {
		return fmt.Errorf("must be between %d and %d, got: %d", lo, hi, n)
	}
	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64) error {
	if size <= 0 {
		return fmt.Errorf("must be positive, got: %d", size)
	}

	if size > 100*1024*1024 {
		return fmt.Errorf("is too large (max 100MB), got: %d bytes", size)
	}

	return nil
}

// validateMaxLogFileSize keeps the rotating file between 1MB and 1GB
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is missing in %q", raw)
	}
	return nil
}

func validateTimeout(d time.Duration) error {
	if d < time.Second || d > 2*time.Minute {
		return fmt.Errorf("must be between 1s and 2m, got: %s", d)
	}
	return nil
}

func validateRate(r float64) error {
	if r <= 0 || r > 100 {
		return fmt.Errorf("must be in (0, 100], got: %g", r)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault accepts Go durations ("15s") or plain seconds ("15")
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"TRANSPORT",
		"REGISTRY_BASE_URL",
		"REGISTRY_TIMEOUT",
		"REGISTRY_MAX_RETRIES",
		"REGISTRY_RATE_PER_SEC",
		"REGISTRY_BURST",
		"MAX_RESULTS",
		"SUGGEST_LIMIT",
		"PROBE_INTERVAL_MINUTES",
	}
}
