package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDoSucceedsAfterRetry(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), zap.NewNop(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still failing")
	attempts := 0
	err := Do(context.Background(), fastConfig(), zap.NewNop(), func() error {
		attempts++
		return sentinel
	})
	if err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("exhausted error should wrap the last failure, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoIfStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	attempts := 0
	err := DoIf(context.Background(), fastConfig(), zap.NewNop(),
		func(err error) bool { return !errors.Is(err, permanent) },
		func() error {
			attempts++
			return permanent
		})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the permanent error unwrapped, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Config{
		MaxAttempts:   3,
		InitialDelay:  time.Hour,
		MaxDelay:      time.Hour,
		BackoffFactor: 2.0,
	}, zap.NewNop(), func() error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
