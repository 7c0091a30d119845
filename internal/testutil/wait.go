// Package testutil provides polling helpers for asynchronous tests.
package testutil

import (
	"testing"
	"time"
)

const pollInterval = 10 * time.Millisecond

// Eventually polls condition every 10ms until it returns true or the
// timeout elapses. Returns whether the condition was met.
func Eventually(tb testing.TB, timeout time.Duration, condition func() bool) bool {
	tb.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(pollInterval)
	}
	return condition()
}

// MustEventually is Eventually but fails the test on timeout.
func MustEventually(tb testing.TB, timeout time.Duration, condition func() bool) {
	tb.Helper()
	if !Eventually(tb, timeout, condition) {
		tb.Fatal("timed out waiting for condition")
	}
}
