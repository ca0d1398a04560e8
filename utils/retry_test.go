package utils

import (
	"errors"
	"testing"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, Logger: NewLogger()}

	var attempts []int
	err := r.Do("op", func(attempt int) error {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("attempt numbers: got %v, want [1 2 3]", attempts)
	}
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, Logger: NewLogger()}

	sentinel := errors.New("permanent")
	err := r.Do("op", func(int) error { return sentinel })
	if err == nil {
		t.Fatal("want an error after exhaustion")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("want wrapped sentinel, got %v", err)
	}
}

func TestRetryStopsOnFirstSuccess(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, Logger: NewLogger()}

	calls := 0
	if err := r.Do("op", func(int) error { calls++; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
