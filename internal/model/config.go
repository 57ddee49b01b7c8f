package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DatabaseConfig holds settings for the local embedded store.
type DatabaseConfig struct {
	// Path is the SQLite database file location.
	Path string `mapstructure:"path" yaml:"path"`
}

// MirrorConfig holds settings for the remote mirror service.
type MirrorConfig struct {
	// BaseURL is the root URL of the remote document tree.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// AuthToken is appended to mirror requests when non-empty.
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`
}

// IdentityConfig holds settings for the credential service.
type IdentityConfig struct {
	// BaseURL is the root URL of the identity provider.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// APIKey identifies the application to the provider.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Mirror   MirrorConfig   `mapstructure:"mirror" yaml:"mirror"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/listsync/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "listsync", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	return &AppConfig{
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".local", "share", "listsync", "listsync.db"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("database.path", defaultAppConfig().Database.Path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("mirror", cfg.Mirror)
	v.Set("identity", cfg.Identity)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
