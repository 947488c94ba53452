package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
name: "test-screener"
host: "127.0.0.1"
port: 8085
storage:
  db_type: "sqlite"
  db_path: "./test.db"
network:
  timeout: 10
  retries: 2
  concurrent_requests: 2
provider:
  api_key: "from-yaml"
screener:
  symbols:
    - "AAPL"
    - "MSFT"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesDefaults(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")

	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Name != "test-screener" || cfg.Port != 8085 {
		t.Errorf("parsed app section: %s/%d", cfg.Name, cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level: %q", cfg.LogLevel)
	}
	if cfg.Provider.Name != "polygon" || cfg.Provider.BaseURL == "" {
		t.Errorf("provider defaults: %+v", cfg.Provider)
	}
	if cfg.Provider.IntradayDays != 30 || cfg.Provider.DailyStartDate != "2022-01-01" {
		t.Errorf("history defaults: %+v", cfg.Provider)
	}
	if len(cfg.Screener.Resolutions) != 3 || cfg.Screener.Workers != 8 {
		t.Errorf("screener defaults: %+v", cfg.Screener)
	}
	if cfg.Screener.Weights.SRSI != 1 || cfg.Screener.Weights.RSI != 0.5 {
		t.Errorf("weight defaults: %+v", cfg.Screener.Weights)
	}
	if cfg.Refresh.UpdateIntervalSeconds != 300 {
		t.Errorf("refresh defaults: %+v", cfg.Refresh)
	}
	if cfg.Provider.APIKey != "from-yaml" {
		t.Errorf("api key: %q", cfg.Provider.APIKey)
	}
}

func TestNewConfigEnvironmentOverridesAPIKey(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "from-env")

	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.APIKey != "from-env" {
		t.Errorf("api key: %q, expected the environment to win", cfg.Provider.APIKey)
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

// -----------------------------------------------------------------------------

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")

	cases := []struct {
		name string
		yaml string
	}{
		{"privileged port", `
name: "x"
host: "127.0.0.1"
port: 80
storage: {db_type: "sqlite", db_path: "./x.db"}
network: {timeout: 10, retries: 1, concurrent_requests: 1}
provider: {api_key: "k"}
screener: {symbols: ["AAPL"]}
`},
		{"unknown db type", `
name: "x"
host: "127.0.0.1"
port: 8085
storage: {db_type: "mongodb"}
network: {timeout: 10, retries: 1, concurrent_requests: 1}
provider: {api_key: "k"}
screener: {symbols: ["AAPL"]}
`},
		{"no symbols", `
name: "x"
host: "127.0.0.1"
port: 8085
storage: {db_type: "sqlite", db_path: "./x.db"}
network: {timeout: 10, retries: 1, concurrent_requests: 1}
provider: {api_key: "k"}
screener: {symbols: []}
`},
		{"unsupported resolution", `
name: "x"
host: "127.0.0.1"
port: 8085
storage: {db_type: "sqlite", db_path: "./x.db"}
network: {timeout: 10, retries: 1, concurrent_requests: 1}
provider: {api_key: "k"}
screener: {symbols: ["AAPL"], resolutions: ["2min"]}
`},
		{"missing api key", `
name: "x"
host: "127.0.0.1"
port: 8085
storage: {db_type: "sqlite", db_path: "./x.db"}
network: {timeout: 10, retries: 1, concurrent_requests: 1}
screener: {symbols: ["AAPL"]}
`},
	}

	for _, tc := range cases {
		if _, err := NewConfig(writeConfig(t, tc.yaml)); err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
	}
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrips(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")

	cfg, err := NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	out := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(out); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := NewConfig(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != cfg.Name || reloaded.Port != cfg.Port {
		t.Errorf("round trip changed the app section: %s/%d", reloaded.Name, reloaded.Port)
	}
	if len(reloaded.Screener.Symbols) != 2 {
		t.Errorf("round trip lost symbols: %v", reloaded.Screener.Symbols)
	}
}
