// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for grokchat.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. Secrets never live here: the API key is kept in the local
// store, and the config file only carries operational settings.
//
// Configuration file location: ~/.grokchat/config.toml
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete grokchat configuration.
type Config struct {
	Version string `toml:"version"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// Export configuration
	Export ExportConfig `toml:"export"`

	// Relay (forwarding server) configuration
	Relay RelayConfig `toml:"relay"`
}

// ChatConfig contains completion client configuration.
type ChatConfig struct {
	// Model is the hosted model name sent on direct requests.
	Model string `toml:"model"`
	// Endpoint is the hosted chat completions URL.
	Endpoint string `toml:"endpoint"`
	// Temperature is the sampling temperature for completions.
	Temperature float64 `toml:"temperature"`
	// ForwarderURL is the base URL of the local relay, used when the
	// use_forwarder setting is on.
	ForwarderURL string `toml:"forwarder_url"`
}

// ExportConfig contains export writer configuration.
type ExportConfig struct {
	// OutputDir is where export files are written. Empty means the
	// current directory.
	OutputDir string `toml:"output_dir"`
	// IncludeTimestamps adds per-turn timestamps to exports.
	IncludeTimestamps bool `toml:"include_timestamps"`
}

// RelayConfig contains forwarding server configuration.
type RelayConfig struct {
	// Listen is the host:port the relay binds.
	Listen string `toml:"listen"`
	// StaticDir, when set, is served at "/" for the web client.
	StaticDir string `toml:"static_dir"`
	// AllowedOrigins is the CORS allowlist. "*" allows any origin.
	AllowedOrigins []string `toml:"allowed_origins"`
	// RateLimitPerMinute caps requests per client IP. Zero disables.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Chat: ChatConfig{
			Model:        "grok-beta",
			Endpoint:     "https://api.x.ai/v1/chat/completions",
			Temperature:  0.7,
			ForwarderURL: "http://127.0.0.1:8090",
		},
		Export: ExportConfig{
			IncludeTimestamps: true,
		},
		Relay: RelayConfig{
			Listen:             "127.0.0.1:8090",
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 60,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the grokchat configuration directory (~/.grokchat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".grokchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when the file is absent. Environment overrides apply last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults. Decoding into a
// Default() copy already covers absent keys; this guards explicit empties.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Chat.Model == "" {
		c.Chat.Model = defaults.Chat.Model
	}
	if c.Chat.Endpoint == "" {
		c.Chat.Endpoint = defaults.Chat.Endpoint
	}
	if c.Chat.Temperature == 0 {
		c.Chat.Temperature = defaults.Chat.Temperature
	}
	if c.Chat.ForwarderURL == "" {
		c.Chat.ForwarderURL = defaults.Chat.ForwarderURL
	}
	if c.Relay.Listen == "" {
		c.Relay.Listen = defaults.Relay.Listen
	}
	if len(c.Relay.AllowedOrigins) == 0 {
		c.Relay.AllowedOrigins = defaults.Relay.AllowedOrigins
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath saves the configuration to a TOML file.
// SECURITY: Config files are created 0600 (owner read/write only).
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# grokchat configuration file")
	fmt.Fprintln(file, "# The API key is NOT stored here; run 'grokchat setup' to set it.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []string

	if _, err := url.Parse(c.Chat.Endpoint); err != nil || !strings.HasPrefix(c.Chat.Endpoint, "http") {
		errs = append(errs, ValidationError{"chat.endpoint", "must be an http(s) URL"}.Error())
	}
	if _, err := url.Parse(c.Chat.ForwarderURL); err != nil || !strings.HasPrefix(c.Chat.ForwarderURL, "http") {
		errs = append(errs, ValidationError{"chat.forwarder_url", "must be an http(s) URL"}.Error())
	}
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{"chat.temperature", "must be between 0 and 2"}.Error())
	}
	if c.Relay.RateLimitPerMinute < 0 {
		errs = append(errs, ValidationError{"relay.rate_limit_per_minute", "must not be negative"}.Error())
	}
	if c.Relay.StaticDir != "" {
		if info, err := os.Stat(c.Relay.StaticDir); err != nil || !info.IsDir() {
			errs = append(errs, ValidationError{"relay.static_dir", "must be an existing directory"}.Error())
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies GROKCHAT_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("GROKCHAT_MODEL"); model != "" {
		c.Chat.Model = model
	}
	if endpoint := os.Getenv("GROKCHAT_ENDPOINT"); endpoint != "" {
		c.Chat.Endpoint = endpoint
	}
	if fw := os.Getenv("GROKCHAT_FORWARDER_URL"); fw != "" {
		c.Chat.ForwarderURL = fw
	}
	if listen := os.Getenv("GROKCHAT_RELAY_LISTEN"); listen != "" {
		c.Relay.Listen = listen
	}
	if dir := os.Getenv("GROKCHAT_EXPORT_DIR"); dir != "" {
		c.Export.OutputDir = dir
	}
	if temp := os.Getenv("GROKCHAT_TEMPERATURE"); temp != "" {
		if f, err := strconv.ParseFloat(temp, 64); err == nil {
			c.Chat.Temperature = f
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// resolve walks the config struct by dot-notation key ("chat.model") and
// returns the addressed field.
func (c *Config) resolve(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field %q is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// Get retrieves a configuration value using dot notation (e.g. "chat.model").
func (c *Config) Get(key string) (any, error) {
	field, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value from its string form using dot notation.
func (c *Config) Set(key, value string) error {
	field, err := c.resolve(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %v", err)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %v", err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		field.SetBool(value == "1" || strings.EqualFold(value, "true") || strings.EqualFold(value, "yes"))
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot set field: %s", key)
		}
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("cannot set field of type %s", field.Kind())
	}
	return nil
}

// normalizeFieldName converts snake_case or kebab-case to the Go field form.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// GetAllKeys returns the settable configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"chat.model",
		"chat.endpoint",
		"chat.temperature",
		"chat.forwarder_url",
		"export.output_dir",
		"export.include_timestamps",
		"relay.listen",
		"relay.static_dir",
		"relay.allowed_origins",
		"relay.rate_limit_per_minute",
	}
}
