// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
	"time"
)

// Store drivers accepted in store.driver.
const (
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
	StoreDriverMemory = "memory"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Gateway configuration for the client side of the message channel
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// Provider configuration
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Credential store configuration
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// It must outlast the gateway timeout or replies are cut off.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`

	// AllowedOrigins lists the browser origins allowed to call the server,
	// e.g. chrome-extension://<id>. Requests carrying any other Origin are
	// rejected. Requests without an Origin header are not affected.
	AllowedOrigins []string `json:"allowed_origins" mapstructure:"allowed_origins"`
}

// GatewayConfig holds settings for the request gateway.
type GatewayConfig struct {
	// ServerURL is the base URL of the enhancement server.
	ServerURL string `json:"server_url" mapstructure:"server_url"`

	// TimeoutMS is how long the gateway waits for a reply.
	TimeoutMS int `json:"timeout_ms" mapstructure:"timeout_ms"`
}

// Timeout returns TimeoutMS as a duration.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMS) * time.Millisecond
}

// ProviderConfig holds settings for the completion provider.
type ProviderConfig struct {
	// BaseURL overrides the OpenAI API base URL.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// RequestTimeoutSeconds bounds a single provider call.
	RequestTimeoutSeconds int `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
}

// RequestTimeout returns RequestTimeoutSeconds as a duration.
func (p ProviderConfig) RequestTimeout() time.Duration {
	return time.Duration(p.RequestTimeoutSeconds) * time.Second
}

// StoreConfig selects where credentials are persisted.
type StoreConfig struct {
	// Driver is one of file, sqlite, memory.
	Driver string `json:"driver" mapstructure:"driver"`

	// Path is the credentials file or database path.
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stdout).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
// Returns an error if configuration loading fails.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// This should be used when you need to specify a non-default configuration file path.
// Returns an error if configuration loading fails.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance.
// It panics if the configuration cannot be loaded.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	// Validate gateway configuration
	if c.Gateway.TimeoutMS <= 0 {
		validationErrors = append(validationErrors, "gateway.timeout_ms must be positive")
	}
	if c.Gateway.ServerURL == "" {
		validationErrors = append(validationErrors, "gateway.server_url is required")
	}

	// Validate provider configuration
	if c.Provider.BaseURL == "" {
		validationErrors = append(validationErrors, "provider.base_url is required")
	}
	if c.Provider.RequestTimeoutSeconds <= 0 {
		validationErrors = append(validationErrors, "provider.request_timeout_seconds must be positive")
	}

	// Validate store configuration
	if !isValidStoreDriver(c.Store.Driver) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"store.driver '%s' is invalid, must be one of: file, sqlite, memory",
			c.Store.Driver,
		))
	}
	if c.Store.Driver != StoreDriverMemory && c.Store.Path == "" {
		validationErrors = append(validationErrors, "store.path is required for file and sqlite drivers")
	}

	// Validate logging configuration
	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidStoreDriver checks if the store driver is supported.
func isValidStoreDriver(driver string) bool {
	switch driver {
	case StoreDriverFile, StoreDriverSQLite, StoreDriverMemory:
		return true
	default:
		return false
	}
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
