// Package circuitbreaker implements a per-destination circuit breaker.
//
// After too many consecutive failures the breaker opens and blocks further
// attempts until a cooldown elapses, then lets a single probe through.
package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the state of a circuit breaker.
type State int

const (
	Closed   State = iota // normal operation, requests allowed
	Open                  // failing, requests blocked
	HalfOpen              // cooldown elapsed, probing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds configuration for a circuit breaker.
// Zero values fall back to the defaults.
type Config struct {
	Threshold int           // consecutive failures before opening (default: 5)
	Cooldown  time.Duration // time before a half-open probe (default: 30s)
}

// Breaker tracks consecutive failures for a single destination.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	threshold   int
	lastFailure time.Time
	cooldown    time.Duration
}

// New creates a new circuit breaker.
func New(cfg Config) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{
		state:     Closed,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
	}
}

// Allow reports whether a request should be attempted.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if time.Since(b.lastFailure) > b.cooldown {
			b.state = HalfOpen
			return true
		}
		return false
	default:
		// Closed always allows; HalfOpen allows the probe through.
		return true
	}
}

// RecordSuccess resets the breaker to closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = Closed
}

// RecordFailure counts a failure and may open the breaker.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.state == HalfOpen || b.failures >= b.threshold {
		b.state = Open
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
