package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/oligame1/friendly-parakeet/internal/synth"
)

func TestIsRetryable(t *testing.T) {
	retryable := &synth.RetryableError{StatusCode: 503, Message: "overloaded"}
	if !IsRetryable(retryable) {
		t.Error("expected RetryableError to be retryable")
	}
	if !IsRetryable(fmt.Errorf("synthesis: %w", retryable)) {
		t.Error("expected wrapped RetryableError to be retryable")
	}
	if IsRetryable(errors.New("bad request")) {
		t.Error("expected plain error to not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("expected nil to not be retryable")
	}
}

func TestBackoff_GrowsWithJitterBounds(t *testing.T) {
	for attempt := 0; attempt < 4; attempt++ {
		base := time.Duration(1<<uint(attempt)) * time.Second
		d := Backoff(attempt)
		if d < base {
			t.Errorf("attempt %d: expected at least %v, got %v", attempt, base, d)
		}
		if d >= base+base/2 {
			t.Errorf("attempt %d: expected under %v, got %v", attempt, base+base/2, d)
		}
	}
}

func TestBackoff_CapsAtThirtySeconds(t *testing.T) {
	d := Backoff(10)
	if d < 30*time.Second || d >= 45*time.Second {
		t.Errorf("expected capped backoff in [30s, 45s), got %v", d)
	}
}
