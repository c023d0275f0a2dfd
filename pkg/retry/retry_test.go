package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "pindm/pkg/errors"
	"pindm/pkg/logger"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset", 0)
		}
		return nil
	}, testConfig(5))

	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDoExceedsMaxAttempts(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		return errs.New(errs.ErrorTypeServerError, "bad gateway", 502)
	}, testConfig(3))

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDoNonRetryableError(t *testing.T) {
	attempts := 0
	extractionErr := errs.New(errs.ErrorTypeExtraction, "no media found", 0)
	err := Do(func() error {
		attempts++
		return extractionErr
	}, testConfig(5))

	if !errors.Is(err, extractionErr) {
		t.Errorf("Expected extraction error to surface unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errs.New(errs.ErrorTypeNetwork, "timeout", 0)
		}
		return "https://i.pinimg.com/originals/ab/cd/ef.jpg", nil
	}, testConfig(3))

	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if result != "https://i.pinimg.com/originals/ab/cd/ef.jpg" {
		t.Errorf("Unexpected result: %s", result)
	}
}

func TestExponentialBackoffCapped(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0,
	}

	if d := eb.NextDelay(1); d != time.Second {
		t.Errorf("Expected 1s for attempt 1, got %v", d)
	}
	if d := eb.NextDelay(2); d != 2*time.Second {
		t.Errorf("Expected 2s for attempt 2, got %v", d)
	}
	if d := eb.NextDelay(10); d != 4*time.Second {
		t.Errorf("Expected cap at 4s, got %v", d)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Minute); err == nil {
		t.Error("Expected context error from cancelled Wait")
	}
}
