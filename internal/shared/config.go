package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Live     LiveConfig     `toml:"live"`
	Query    QueryConfig    `toml:"query"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains the backend endpoints and outbound request limits.
type APIConfig struct {
	URL               string  `toml:"url"`
	WSURL             string  `toml:"ws_url"`
	DashboardURL      string  `toml:"dashboard_url"`
	Token             string  `toml:"token"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LiveConfig contains push channel settings.
type LiveConfig struct {
	ReconnectDelayMS int `toml:"reconnect_delay_ms"`
}

// QueryConfig contains query cache retry settings.
type QueryConfig struct {
	Retry        int `toml:"retry"`
	RetryDelayMS int `toml:"retry_delay_ms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReconnectDelay returns the fixed delay between push channel reconnect attempts.
func (c LiveConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

// RetryDelay returns the pause before a failed query load is retried.
func (c QueryConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides config values from environment variables.
//
// PULLSENSE_* names win over the VITE_* names shared with the web dashboard.
func ApplyEnv(c *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := firstNonEmpty(getenv("PULLSENSE_API_URL"), getenv("VITE_API_URL")); v != "" {
		c.API.URL = v
	}
	if v := firstNonEmpty(getenv("PULLSENSE_WS_URL"), getenv("VITE_WS_URL")); v != "" {
		c.API.WSURL = v
	}
	if v := getenv("PULLSENSE_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := getenv("PULLSENSE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
