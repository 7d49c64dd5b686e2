package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL points at the development backend started by edugo-devserver
	DefaultServerURL = "http://localhost:8080"
	// DefaultAPIKey matches the development backend's default anon key
	DefaultAPIKey = "edugo-dev-anon-key"
)

// Config holds user preferences and backend coordinates
type Config struct {
	ServerURL      string `yaml:"server_url" json:"server_url"`           // Backend base URL (REST + auth)
	APIKey         string `yaml:"api_key" json:"api_key"`                 // Service-level API key sent on every request
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"` // HTTP timeout per request
	RefreshSeconds int    `yaml:"refresh_seconds" json:"refresh_seconds"` // TUI catalog auto-refresh interval, 0 disables

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns the edugo state directory (~/.edugo)
func Dir() (string, error) {
	if dir := os.Getenv("EDUGO_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".edugo"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	logPath := ""
	if dir, err := Dir(); err == nil {
		logPath = filepath.Join(dir, "logs", "edugo.log")
	}

	return &Config{
		ServerURL:      getEnv("EDUGO_SERVER_URL", DefaultServerURL),
		APIKey:         getEnv("EDUGO_API_KEY", DefaultAPIKey),
		TimeoutSeconds: getEnvInt("EDUGO_TIMEOUT_SECONDS", 30),
		RefreshSeconds: getEnvInt("EDUGO_REFRESH_SECONDS", 60),
		LogLevel:       getEnv("EDUGO_LOG_LEVEL", "INFO"),
		LogFile:        getEnv("EDUGO_LOG_FILE", logPath),
		LogConsole:     getEnv("EDUGO_LOG_CONSOLE", "false") == "true",
	}
}

// Timeout returns the HTTP timeout as a duration
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the catalog auto-refresh interval (0 = disabled)
func (c *Config) RefreshInterval() time.Duration {
	if c.RefreshSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Validate checks the values the client cannot run without
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Path returns the config file location (~/.edugo/config.yaml)
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.edugo/config.yaml
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads config from path, falling back to defaults when it does not exist
func LoadFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves config to ~/.edugo/config.yaml
func (c *Config) Save() error {
	configPath, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(configPath)
}

// SaveFile writes the config as YAML to path
func (c *Config) SaveFile(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The API key lives in here, keep it private
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
