// Package report evaluates nightly performance timelines and renders the
// HTML status report.
package report

import (
	"fmt"
	"math"
)

// Status classifies a performance measurement against its history.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Color returns the report color for a status.
func (s Status) Color() string {
	switch s {
	case StatusPass:
		return "green"
	case StatusWarn:
		return "yellow"
	default:
		return "red"
	}
}

// DefaultStdCoeff is the sigma multiplier for the performance band.
const DefaultStdCoeff = 2.0

// PerfResult is the outcome of evaluating one timer timeline.
type PerfResult struct {
	Status   Status
	Measured float64 // last measurement
	Mean     float64
	Std      float64
}

// EvaluateTimeline runs the performance test over a timer timeline:
// pass when the last measurement is within stdCoeff standard deviations of
// the mean, warn when only the previous measurement is (tolerates one-off
// spikes), fail otherwise. A single-point timeline passes trivially.
func EvaluateTimeline(wtimes []float64, stdCoeff float64) (PerfResult, error) {
	if len(wtimes) == 0 {
		return PerfResult{}, fmt.Errorf("empty timeline")
	}
	if stdCoeff <= 0 {
		stdCoeff = DefaultStdCoeff
	}

	mu := mean(wtimes)
	sig := stddev(wtimes, mu)
	last := wtimes[len(wtimes)-1]

	r := PerfResult{Measured: last, Mean: mu, Std: sig}
	switch {
	case len(wtimes) == 1 || sig == 0:
		// Nothing to compare against, or every point identical
		r.Status = StatusPass
	case math.Abs(last-mu) < stdCoeff*sig:
		r.Status = StatusPass
	case math.Abs(wtimes[len(wtimes)-2]-mu) < stdCoeff*sig:
		r.Status = StatusWarn
	default:
		r.Status = StatusFail
	}
	return r, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation, matching the historical
// analysis this replaces.
func stddev(xs []float64, mu float64) float64 {
	var sum float64
	for _, x := range xs {
		d := x - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
