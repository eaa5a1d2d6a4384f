// Package util provides common utilities for routerpulse.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	// Router connection
	RouterURL string `mapstructure:"router_url"`
	APIToken  string `mapstructure:"api_token"`

	// Stream settings
	StreamPath        string        `mapstructure:"stream_path"`
	ReconnectMinDelay time.Duration `mapstructure:"reconnect_min_delay"`
	ReconnectMaxDelay time.Duration `mapstructure:"reconnect_max_delay"`

	// Live history (sparkline buffer depth per interface)
	HistoryPoints int `mapstructure:"history_points"`

	// Polling cadences
	InventoryInterval time.Duration `mapstructure:"inventory_interval"`
	BandwidthInterval time.Duration `mapstructure:"bandwidth_interval"`
	PruneInterval     time.Duration `mapstructure:"prune_interval"`

	// Archive settings
	ArchiveEnabled   bool          `mapstructure:"archive_enabled"`
	ArchiveRetention time.Duration `mapstructure:"archive_retention"`

	// Local dashboard API
	APIPort int `mapstructure:"api_port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".routerpulse")

	return &Config{
		DataDir:  dataDir,
		LogLevel: "info",
		LogFile:  filepath.Join(dataDir, "routerpulse.log"),

		RouterURL: "http://192.168.1.1",
		APIToken:  "",

		StreamPath:        "/api/ws/metrics",
		ReconnectMinDelay: 1 * time.Second,
		ReconnectMaxDelay: 30 * time.Second,

		HistoryPoints: 60,

		InventoryInterval: 30 * time.Second,
		BandwidthInterval: 15 * time.Second,
		PruneInterval:     1 * time.Hour,

		ArchiveEnabled:   true,
		ArchiveRetention: 7 * 24 * time.Hour,

		APIPort: 8090,
	}
}

// LoadConfig loads configuration from file and environment.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(cfg.DataDir)
	viper.AddConfigPath(".")

	viper.SetDefault("data_dir", cfg.DataDir)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_file", cfg.LogFile)
	viper.SetDefault("router_url", cfg.RouterURL)
	viper.SetDefault("stream_path", cfg.StreamPath)
	viper.SetDefault("reconnect_min_delay", cfg.ReconnectMinDelay)
	viper.SetDefault("reconnect_max_delay", cfg.ReconnectMaxDelay)
	viper.SetDefault("history_points", cfg.HistoryPoints)
	viper.SetDefault("inventory_interval", cfg.InventoryInterval)
	viper.SetDefault("bandwidth_interval", cfg.BandwidthInterval)
	viper.SetDefault("prune_interval", cfg.PruneInterval)
	viper.SetDefault("archive_enabled", cfg.ArchiveEnabled)
	viper.SetDefault("archive_retention", cfg.ArchiveRetention)
	viper.SetDefault("api_port", cfg.APIPort)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
