package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"centerout/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig
	Feed    FeedConfig
	Targets TargetsConfig
	Paths   PathConfig
	Ledger  LedgerConfig
}

// ServerConfig holds the control API settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// FeedConfig points at the websocket that streams raw positions.
// An empty URL disables the client; samples can still be pushed to /ws/ingest.
type FeedConfig struct {
	URL            string
	ReconnectDelay time.Duration
}

// TargetsConfig locates the target hint service.
type TargetsConfig struct {
	URL          string
	Port         string
	SequenceFile string
	Timeout      time.Duration
}

// PathConfig holds file system paths
type PathConfig struct {
	ParamsFile string
	ExportDir  string
}

// LedgerConfig holds the attempt ledger connection.
type LedgerConfig struct {
	DSN string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Feed: FeedConfig{
			URL:            getEnvOrDefault("FEED_URL", ""),
			ReconnectDelay: getEnvDurationOrDefault("FEED_RECONNECT", 2*time.Second),
		},
		Targets: TargetsConfig{
			URL:          getEnvOrDefault("TARGET_URL", ""),
			Port:         getEnvOrDefault("TARGETD_PORT", "8090"),
			SequenceFile: getEnvOrDefault("TARGETS_FILE", ""),
			Timeout:      getEnvDurationOrDefault("TARGET_TIMEOUT", 2*time.Second),
		},
		Paths: PathConfig{
			ParamsFile: getEnvOrDefault("PARAMS_FILE", ""),
			ExportDir:  getEnvOrDefault("EXPORT_DIR", "./data"),
		},
		Ledger: LedgerConfig{
			DSN: getEnvOrDefault("LEDGER_DSN", "file::memory:?cache=shared"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	for name, raw := range map[string]string{"FEED_URL": config.Feed.URL, "TARGET_URL": config.Targets.URL} {
		if raw == "" {
			continue
		}
		if _, err := url.Parse(raw); err != nil {
			return errors.ConfigInvalid(name + " is not a valid URL")
		}
	}
	if config.Paths.ExportDir == "" {
		return errors.ConfigInvalid("EXPORT_DIR is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
