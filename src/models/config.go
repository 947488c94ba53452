package models

// MConfig Structure
type MConfig struct {
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	LogLevel string          `yaml:"log_level"`
	Storage  MStorageConfig  `yaml:"storage"`
	Network  MNetworkConfig  `yaml:"network"`
	Provider MProviderConfig `yaml:"provider"`
	Screener MScreenerConfig `yaml:"screener"`
	Refresh  MRefreshConfig  `yaml:"refresh"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite, postgres or parquet
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	SnapshotDir        string `yaml:"snapshot_dir"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
}

type MProviderConfig struct {
	Name           string `yaml:"name"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"` // Optional, normally taken from the environment
	IntradayDays   int    `yaml:"intraday_days"`
	DailyStartDate string `yaml:"daily_start_date"`
}

type MScreenerConfig struct {
	Symbols        []string `yaml:"symbols"`
	Resolutions    []string `yaml:"resolutions"`
	Workers        int      `yaml:"workers"`
	DonchianPeriod int      `yaml:"donchian_period"`
	DonchianSmooth int      `yaml:"donchian_smoothing"`
	RSIPeriod      int      `yaml:"rsi_period"`
	RSISmooth      int      `yaml:"rsi_smoothing"`
	SRSIPeriod     int      `yaml:"srsi_period"`
	SRSISmooth     int      `yaml:"srsi_smoothing"`
	SRSIK          int      `yaml:"srsi_k"`
	SRSID          int      `yaml:"srsi_d"`
	Weights        MWeights `yaml:"weights"`
}

type MWeights struct {
	RSI  float64 `yaml:"rsi"`
	SRSI float64 `yaml:"srsi"`
	DCO  float64 `yaml:"dco"`
}

type MRefreshConfig struct {
	UpdateIntervalSeconds int      `yaml:"update_interval_seconds"`
	MarketHoursOnly       bool     `yaml:"market_hours_only"`
	Calendars             []string `yaml:"calendars"`
}
