// Package dispatcher provides async delivery of nightly events with
// buffering, retry, and per-destination circuit breaking.
package dispatcher

import (
	"context"
	"errors"
	"nightly/pkg/cloudevent"
)

// ErrBufferFull is returned when the dispatcher's buffer is full and the event is dropped.
var ErrBufferFull = errors.New("dispatcher buffer full, event dropped")

// Dispatcher handles async delivery of events.
type Dispatcher interface {
	// Dispatch queues an event for async delivery. Non-blocking.
	// Returns ErrBufferFull if the event cannot be queued.
	Dispatch(event *Event) error

	// Stats returns current dispatcher statistics.
	Stats() Stats

	// Close gracefully shuts down, attempting to deliver queued events.
	// The context deadline controls how long to wait for drain.
	Close(ctx context.Context) error
}

// Event is an event to be delivered to a destination.
type Event struct {
	Payload     *cloudevent.CloudEvent
	Destination string // callback URL
	SigningKey  string // HMAC key for signing, empty = no signing
}

// Stats holds dispatcher statistics.
type Stats struct {
	QueueDepth   int   // current queue size
	Queued       int64 // total events queued
	Delivered    int64 // successful deliveries
	Failed       int64 // failed after retries
	Dropped      int64 // dropped due to full buffer or open breaker
	RetriesTotal int64 // total retry attempts
	BreakersOpen int   // currently open circuit breakers
}

// Nop returns a dispatcher that silently discards every event. Used when
// no callback URL is configured.
func Nop() Dispatcher { return nopDispatcher{} }

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(*Event) error       { return nil }
func (nopDispatcher) Stats() Stats                { return Stats{} }
func (nopDispatcher) Close(context.Context) error { return nil }
