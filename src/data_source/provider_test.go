package datasource

import (
	"errors"
	"testing"

	"market-screener/src/helpers"
	"market-screener/src/logger"
	"market-screener/src/models"
)

func TestNewProviderSelectsByName(t *testing.T) {
	log := logger.NewLogger(logger.LevelError, "test")

	cfg := &models.MConfig{Provider: models.MProviderConfig{Name: "polygon"}}
	p, err := NewProvider(cfg, log, nil)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	if p.Name() != "polygon" {
		t.Errorf("provider name: %s", p.Name())
	}

	// An empty name defaults to polygon.
	cfg.Provider.Name = ""
	if p, err = NewProvider(cfg, log, nil); err != nil || p.Name() != "polygon" {
		t.Errorf("default provider: %v, %v", p, err)
	}

	cfg.Provider.Name = "bloomberg"
	_, err = NewProvider(cfg, log, nil)
	var confErr *helpers.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Errorf("unknown provider: expected a ConfigurationError, got %v", err)
	}
}
