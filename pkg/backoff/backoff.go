// Package backoff provides exponential backoff calculation.
package backoff

import (
	"math"
	"time"
)

// Policy describes an exponential backoff schedule. The zero value uses
// the package defaults.
type Policy struct {
	Initial time.Duration // default: 100ms
	Max     time.Duration // default: 5s
}

// Default is the schedule used when no policy is configured.
var Default = Policy{
	Initial: 100 * time.Millisecond,
	Max:     5 * time.Second,
}

// Delay returns the backoff for a given attempt. Attempt 1 returns the
// initial delay, attempt 2 twice that, and so on, capped at Max.
func (p Policy) Delay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = Default.Initial
	}
	maxDelay := p.Max
	if maxDelay <= 0 {
		maxDelay = Default.Max
	}

	if attempt < 1 {
		return initial
	}
	delay := float64(initial) * math.Pow(2.0, float64(attempt-1))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	return time.Duration(delay)
}
