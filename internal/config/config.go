// Package config loads and validates the application configuration.
// Grounded on jakec-github-ilford-drop-in/v2/internal/config/config.go's
// Load/LoadFromPath/findConfigFile/Validate shape: struct-tag validation
// via go-playground/validator, then a business-rule check appended after.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the process-level configuration: listen address, database
// DSN, auth secrets, and the external service endpoints the routing and
// notification collaborators need.
type Config struct {
	Env               string `yaml:"env" validate:"required"`
	ListenAddr        string `yaml:"listenAddr" validate:"required"`
	DatabaseURL       string `yaml:"databaseURL" validate:"required"`
	StaticTokens      []string `yaml:"staticTokens,omitempty"`
	JWTHMACSecret     string `yaml:"jwtHMACSecret,omitempty"`
	RoutingAPIKey     string `yaml:"routingAPIKey,omitempty"`
	RoutingEndpoint   string `yaml:"routingEndpoint,omitempty"`
	NotifyWebhookURL  string `yaml:"notifyWebhookURL,omitempty"`
	MetricsAddr       string `yaml:"metricsAddr,omitempty"`
}

// Load finds and loads the configuration file, falling back to
// environment variables for anything the file omits.
func Load() (*Config, error) {
	path, err := findConfigFile()
	if err != nil {
		return envOnly(), nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads and validates the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read file: %w", err)
	}

	cfg := envOnly()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation and the config's own business
// rules (currently none beyond the required-field tags, but kept as its
// own function so future rules have a home).
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// envOnly builds a Config purely from the environment, the fallback path
// used when no config file is found — this service is expected to run in
// containers that configure purely through the environment rather than
// treating a missing file as fatal.
func envOnly() *Config {
	var tokens []string
	if raw := os.Getenv("STATIC_TOKENS"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			tokens = append(tokens, strings.TrimSpace(t))
		}
	}
	return &Config{
		Env:              envOrDefault("APP_ENV", "development"),
		ListenAddr:       envOrDefault("LISTEN_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StaticTokens:     tokens,
		JWTHMACSecret:    os.Getenv("JWT_HMAC_SECRET"),
		RoutingAPIKey:    os.Getenv("ROUTING_API_KEY"),
		RoutingEndpoint:  os.Getenv("ROUTING_ENDPOINT"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		MetricsAddr:      envOrDefault("METRICS_ADDR", ":9090"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// findConfigFile searches for config.yaml in the current directory and
// the path named by CONFIG_PATH.
func findConfigFile() (string, error) {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml", nil
	}
	return "", fmt.Errorf("config: no config file found")
}

// AbsPath resolves path relative to the working directory, returning path
// unchanged when it cannot be resolved.
func AbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
