package report

import (
	"fmt"
	"nightly/internal/config"
	"nightly/internal/results"
	"time"
)

// TimerResult is one timer's performance outcome within a case.
type TimerResult struct {
	Timer string
	PerfResult
}

// CaseResult is the rollup for one test case.
type CaseResult struct {
	Name      string // <case>_np<N>
	RunPassed bool
	Timers    []TimerResult

	Passes   int
	Warnings int
	Fails    int
}

// Status returns the rollup status for the case: fail when the run failed
// or any timer failed, warn when any timer warned, pass otherwise.
func (c *CaseResult) Status() Status {
	switch {
	case !c.RunPassed || c.Fails > 0:
		return StatusFail
	case c.Warnings > 0:
		return StatusWarn
	default:
		return StatusPass
	}
}

// Counts formats the pass/warn/fail counts the way the status table shows
// them, or "Failed" when the run itself failed.
func (c *CaseResult) Counts() string {
	if !c.RunPassed {
		return "Failed"
	}
	return fmt.Sprintf("%d/%d/%d", c.Passes, c.Warnings, c.Fails)
}

// Report is the nightly performance status report for one machine.
type Report struct {
	Machine      string
	Date         time.Time
	Cases        []CaseResult
	DashboardURL string
}

// Failed reports whether any case failed its run or any timer regressed.
func (r *Report) Failed() bool {
	for i := range r.Cases {
		if r.Cases[i].Status() == StatusFail {
			return true
		}
	}
	return false
}

// Subject returns the report subject line with the pass/fail prefix.
func (r *Report) Subject() string {
	prefix := "[PerfTestsPassed]"
	if r.Failed() {
		prefix = "[PerfTestsFailed]"
	}
	return fmt.Sprintf("%s Nightly Performance Tests (%s)", prefix, r.Machine)
}

// Build evaluates the machine's cases against the result history.
func Build(m config.Machine, h results.History) *Report {
	r := &Report{
		Machine: m.Name,
		Date:    time.Now(),
	}
	if latest := h.Latest(); latest != nil {
		r.Date = latest.Date
	}

	for _, caseID := range m.Cases {
		name := results.CaseName(caseID, m.NumProcs)
		c := CaseResult{Name: name, RunPassed: h.RunPassed(name)}

		if c.RunPassed {
			for _, timer := range m.Timers {
				wtimes := h.Timeline(name, timer)
				perf, err := EvaluateTimeline(wtimes, DefaultStdCoeff)
				if err != nil {
					// No history for this timer yet
					continue
				}
				c.Timers = append(c.Timers, TimerResult{Timer: timer, PerfResult: perf})
				switch perf.Status {
				case StatusPass:
					c.Passes++
				case StatusWarn:
					c.Warnings++
				default:
					c.Fails++
				}
			}
		}

		r.Cases = append(r.Cases, c)
	}
	return r
}

// Summary returns the event payload describing the report outcome.
func (r *Report) Summary() map[string]any {
	cases := make([]map[string]any, 0, len(r.Cases))
	for i := range r.Cases {
		c := &r.Cases[i]
		cases = append(cases, map[string]any{
			"name":     c.Name,
			"status":   string(c.Status()),
			"passes":   c.Passes,
			"warnings": c.Warnings,
			"fails":    c.Fails,
		})
	}
	return map[string]any{
		"machine": r.Machine,
		"subject": r.Subject(),
		"failed":  r.Failed(),
		"cases":   cases,
	}
}
