package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	MaxItemsLimit = 1000

	StoreJSON   = "json"
	StoreSQLite = "sqlite"

	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"

	// DefaultLocation is what Get reports for an unset history location.
	DefaultLocation = "[default]"
)

// Keys lists the configuration keys accepted by Get and Update, in display
// order.
var Keys = []string{
	"max-items",
	"shortcut",
	"auto-start",
	"theme",
	"preview-length",
	"max-text-length",
	"save-delay",
	"store",
	"history-location",
}

// Config represents the cliphist configuration
type Config struct {
	MaxItems        int           `yaml:"max_items"`
	Shortcut        string        `yaml:"shortcut"`
	AutoStart       bool          `yaml:"auto_start"`
	Theme           string        `yaml:"theme"`
	PreviewLength   int           `yaml:"preview_length"`
	MaxTextLength   int           `yaml:"max_text_length"`
	SaveDelay       time.Duration `yaml:"save_delay"`
	Store           string        `yaml:"store"`
	HistoryLocation string        `yaml:"history_location,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		MaxItems:      30,
		Shortcut:      "CommandOrControl+Shift+I",
		AutoStart:     false,
		Theme:         ThemeSystem,
		PreviewLength: 1000,
		MaxTextLength: 1_000_000,
		SaveDelay:     time.Second,
		Store:         StoreJSON,
	}
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a configuration manager for
// ~/.config/cliphist/config.yaml.
func NewConfigManager() (*ConfigManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "cliphist", "config.yaml")
	return &ConfigManager{configPath: configPath}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't
// exist. Keys missing from the file keep their default values.
func (cm *ConfigManager) Load() (*Config, error) {
	data, err := os.ReadFile(cm.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every field against its allowed range.
func (c *Config) Validate() error {
	if c.MaxItems <= 0 {
		return fmt.Errorf("max_items must be greater than 0")
	}
	if c.MaxItems > MaxItemsLimit {
		return fmt.Errorf("max_items cannot exceed %d items", MaxItemsLimit)
	}
	if c.PreviewLength <= 0 {
		return fmt.Errorf("preview_length must be greater than 0")
	}
	if c.MaxTextLength <= 0 {
		return fmt.Errorf("max_text_length must be greater than 0")
	}
	if c.SaveDelay <= 0 {
		return fmt.Errorf("save_delay must be positive")
	}

	switch c.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("theme must be one of system, light, dark: %q", c.Theme)
	}

	switch c.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("store must be json or sqlite: %q", c.Store)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "max-items":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		config.MaxItems = n
	case "shortcut":
		config.Shortcut = value
	case "auto-start":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for auto-start: %s (must be 'true' or 'false')", value)
		}
		config.AutoStart = b
	case "theme":
		config.Theme = value
	case "preview-length":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		config.PreviewLength = n
	case "max-text-length":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		config.MaxTextLength = n
	case "save-delay":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for save-delay: %s", value)
		}
		config.SaveDelay = d
	case "store":
		config.Store = value
	case "history-location":
		config.HistoryLocation = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	config, err := cm.Load()
	if err != nil {
		return "", err
	}
	return config.Value(key)
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(Keys))
	for _, key := range Keys {
		value, err := config.Value(key)
		if err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, nil
}

// Value formats the field named by key.
func (c *Config) Value(key string) (string, error) {
	switch key {
	case "max-items":
		return strconv.Itoa(c.MaxItems), nil
	case "shortcut":
		return c.Shortcut, nil
	case "auto-start":
		return strconv.FormatBool(c.AutoStart), nil
	case "theme":
		return c.Theme, nil
	case "preview-length":
		return strconv.Itoa(c.PreviewLength), nil
	case "max-text-length":
		return strconv.Itoa(c.MaxTextLength), nil
	case "save-delay":
		return c.SaveDelay.String(), nil
	case "store":
		return c.Store, nil
	case "history-location":
		if c.HistoryLocation == "" {
			return DefaultLocation, nil
		}
		return c.HistoryLocation, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}
	return n, nil
}
