// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for tools built on the client library.
type Config struct {
	APIURL            string        // REDCAP_URL, the project's /api/ endpoint
	APIToken          string        // REDCAP_TOKEN, the project's API token
	ProjectName       string        // REDCAP_PROJECT_NAME, display name for logs
	HTTPClientTimeout time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 30000ms (30s)
	TLSSkipVerify     bool          // TLS_SKIP_VERIFY, default false
	TLSCABundle       string        // TLS_CA_BUNDLE, path to extra PEM roots
	MetadataCacheMax  int           // METADATA_CACHE_MAX_ITEMS, default 32

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		APIURL:            getEnvString("REDCAP_URL", ""),
		APIToken:          getEnvString("REDCAP_TOKEN", ""),
		ProjectName:       getEnvString("REDCAP_PROJECT_NAME", ""),
		HTTPClientTimeout: getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 30000),
		TLSSkipVerify:     getEnvBool("TLS_SKIP_VERIFY", false),
		TLSCABundle:       getEnvString("TLS_CA_BUNDLE", ""),
		MetadataCacheMax:  getEnvInt("METADATA_CACHE_MAX_ITEMS", 32),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
