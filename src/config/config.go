package config

import (
	"fmt"
	"os"
	"time"

	"market-screener/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from a YAML file. The provider
// API key is taken from the environment (POLYGON_API_KEY, optionally via a
// .env file) and falls back to the YAML value.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment overrides (.env is optional)
	_ = godotenv.Load()
	if key := os.Getenv("POLYGON_API_KEY"); key != "" {
		config.Provider.APIKey = key
	}

	// 4. Fill defaults and validate
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills the optional knobs that have sane values.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "polygon"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.polygon.io"
	}
	if c.Provider.IntradayDays == 0 {
		c.Provider.IntradayDays = 30
	}
	if c.Provider.DailyStartDate == "" {
		c.Provider.DailyStartDate = "2022-01-01"
	}
	if len(c.Screener.Resolutions) == 0 {
		c.Screener.Resolutions = []string{models.Resolution1D, models.Resolution1Wk, models.Resolution1Mo}
	}
	if c.Screener.Workers == 0 {
		c.Screener.Workers = 8
	}
	if c.Screener.DonchianPeriod == 0 {
		c.Screener.DonchianPeriod = 14
	}
	if c.Screener.DonchianSmooth == 0 {
		c.Screener.DonchianSmooth = 3
	}
	if c.Screener.RSIPeriod == 0 {
		c.Screener.RSIPeriod = 14
	}
	if c.Screener.RSISmooth == 0 {
		c.Screener.RSISmooth = 3
	}
	if c.Screener.SRSIPeriod == 0 {
		c.Screener.SRSIPeriod = 20
	}
	if c.Screener.SRSISmooth == 0 {
		c.Screener.SRSISmooth = 3
	}
	if c.Screener.SRSIK == 0 {
		c.Screener.SRSIK = 5
	}
	if c.Screener.SRSID == 0 {
		c.Screener.SRSID = 5
	}
	if c.Screener.Weights == (models.MWeights{}) {
		c.Screener.Weights = models.MWeights{RSI: 0.5, SRSI: 1, DCO: 1}
	}
	if c.Refresh.UpdateIntervalSeconds == 0 {
		c.Refresh.UpdateIntervalSeconds = 300
	}
	if len(c.Refresh.Calendars) == 0 {
		c.Refresh.Calendars = []string{"xnys"}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	// Validate App configuration (Flattened)
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	case "parquet":
		if c.Storage.SnapshotDir == "" {
			return fmt.Errorf("snapshot directory cannot be empty for parquet")
		}
	case "":
		return fmt.Errorf("database type cannot be empty")
	default:
		return fmt.Errorf("unknown database type: %s", c.Storage.DBType)
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	// Validate Provider configuration
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider API key is missing (set POLYGON_API_KEY or provider.api_key)")
	}
	if c.Provider.IntradayDays <= 0 {
		return fmt.Errorf("intraday days must be greater than 0")
	}
	if _, err := time.Parse("2006-01-02", c.Provider.DailyStartDate); err != nil {
		return fmt.Errorf("invalid daily start date '%s': %w", c.Provider.DailyStartDate, err)
	}

	// Validate Screener configuration
	if len(c.Screener.Symbols) == 0 {
		return fmt.Errorf("at least one symbol must be configured")
	}
	for _, r := range c.Screener.Resolutions {
		if !models.IsSupportedResolution(r) {
			return fmt.Errorf("unsupported resolution in config: %s", r)
		}
	}

	// Validate Refresh configuration
	if c.Refresh.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update interval must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
