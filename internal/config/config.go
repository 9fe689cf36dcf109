package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AppName names the config directory and the log file.
	AppName = "payoff"

	DefaultAPIBaseURL        = "https://api.tradier.com"
	DefaultRiskFreeRate      = 0.045
	DefaultHistoryYears      = 1
	DefaultRangeMultiplier   = 2.0
	DefaultForestTrees       = 100
	DefaultLogLevel          = "info"
	DefaultCacheTTLSeconds   = 300
	DefaultRequestsPerSecond = 2.0
)

// Config holds the CLI configuration.
type Config struct {
	APIBaseURL string `yaml:"api_base_url"`

	// RiskFreeRate is an annual rate used for Black-Scholes greeks (0.045 = 4.5%).
	RiskFreeRate float64 `yaml:"risk_free_rate"`

	// HistoryYears is how many years of daily bars train the range model.
	HistoryYears int `yaml:"history_years"`

	// RangeMultiplier scales the predicted std into the expected price range.
	RangeMultiplier float64 `yaml:"range_multiplier"`

	ForestTrees       int     `yaml:"forest_trees"`
	PlotDir           string  `yaml:"plot_dir,omitempty"`
	LogLevel          string  `yaml:"log_level"`
	CacheTTLSeconds   int     `yaml:"cache_ttl_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// DefaultConfig returns a config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:        DefaultAPIBaseURL,
		RiskFreeRate:      DefaultRiskFreeRate,
		HistoryYears:      DefaultHistoryYears,
		RangeMultiplier:   DefaultRangeMultiplier,
		ForestTrees:       DefaultForestTrees,
		LogLevel:          DefaultLogLevel,
		CacheTTLSeconds:   DefaultCacheTTLSeconds,
		RequestsPerSecond: DefaultRequestsPerSecond,
	}
}

// ConfigDir returns the configuration directory, honouring XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path of the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogPath returns the path of the rotating log file.
func LogPath() string {
	return filepath.Join(ConfigDir(), AppName+".log")
}

// ResolvedPlotDir returns where charts are written: PlotDir when set,
// otherwise a plots directory next to the config file.
func (c *Config) ResolvedPlotDir() string {
	if c.PlotDir != "" {
		return c.PlotDir
	}
	return filepath.Join(ConfigDir(), "plots")
}

// Load reads the config file at path. A missing file yields the defaults,
// and fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults replaces zero or nonsensical values with defaults.
func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.HistoryYears <= 0 {
		c.HistoryYears = DefaultHistoryYears
	}
	if c.RangeMultiplier <= 0 {
		c.RangeMultiplier = DefaultRangeMultiplier
	}
	if c.ForestTrees <= 0 {
		c.ForestTrees = DefaultForestTrees
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
}

// Save writes the config to path with 0600 permissions, creating parent
// directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
