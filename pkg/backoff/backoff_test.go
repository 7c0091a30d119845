package backoff

import (
	"testing"
	"time"
)

func TestDelay_Defaults(t *testing.T) {
	t.Parallel()

	var p Policy
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1600 * time.Millisecond},
		{6, 3200 * time.Millisecond},
		{7, 5 * time.Second}, // capped at max
		{8, 5 * time.Second}, // capped at max
	}

	for _, tt := range tests {
		got := p.Delay(tt.attempt)
		if got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelay_CustomPolicy(t *testing.T) {
	t.Parallel()

	p := Policy{Initial: time.Second, Max: 3 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second}, // capped at max
		{10, 3 * time.Second},
	}

	for _, tt := range tests {
		got := p.Delay(tt.attempt)
		if got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelay_AttemptBelowOne(t *testing.T) {
	t.Parallel()

	var p Policy
	if got := p.Delay(0); got != 100*time.Millisecond {
		t.Errorf("Delay(0) = %v, want initial", got)
	}
	if got := p.Delay(-3); got != 100*time.Millisecond {
		t.Errorf("Delay(-3) = %v, want initial", got)
	}
}
