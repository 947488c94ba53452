package helpers

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"market-screener/src/logger"
)

func TestErrorMessages(t *testing.T) {
	bare := NewValidationError("lastN must be positive", nil)
	if bare.Error() != "lastN must be positive" {
		t.Errorf("bare message: %q", bare.Error())
	}

	cause := errors.New("connection reset")
	wrapped := NewProviderError("fetching AAPL minute aggregates", cause)
	if wrapped.Error() != "fetching AAPL minute aggregates: connection reset" {
		t.Errorf("wrapped message: %q", wrapped.Error())
	}
}

func TestErrorChains(t *testing.T) {
	cause := errors.New("connection reset")
	var err error = NewProviderError("fetching AAPL", cause)
	err = fmt.Errorf("refresh cycle: %w", err)

	if !errors.Is(err, cause) {
		t.Error("the original cause should survive wrapping")
	}
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Error("the provider error should be findable through the chain")
	}

	// The typed errors stay distinct even though they share an embed.
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		t.Error("a provider error must not match as a storage error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewLogger(logger.LevelError, "helpers-test")

	calls := 0
	err := RetryWithBackoff(log, "flaky operation", 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected recovery on the second attempt: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}

	calls = 0
	cause := errors.New("always down")
	err = RetryWithBackoff(log, "doomed operation", 3, time.Millisecond, func() error {
		calls++
		return cause
	})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, cause) {
		t.Errorf("the last attempt's error should be wrapped: %v", err)
	}
}
