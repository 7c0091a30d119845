// Package results loads dated CTest result files from a machine's nightly
// data directory.
//
// A result file is named <prefix><yyyymmdd>.json and contains the test
// outcomes and timer measurements of one nightly run:
//
//	{
//	  "tests": [
//	    {
//	      "name": "ant-2-20km_ml_line_np384",
//	      "passed": true,
//	      "timers": {"Albany: Total Time:": 123.4}
//	    }
//	  ]
//	}
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateLayout is the date format embedded in result file names.
const DateLayout = "20060102"

// Test is one test case outcome from a nightly run.
type Test struct {
	Name   string             `json:"name"`
	Passed bool               `json:"passed"`
	Timers map[string]float64 `json:"timers"`
}

// File is one parsed result file.
type File struct {
	Path  string
	Date  time.Time
	tests map[string]Test
}

// Test returns the named test and whether it was present in this run.
func (f *File) Test(name string) (Test, bool) {
	t, ok := f.tests[name]
	return t, ok
}

// History is a date-ordered sequence of result files.
type History []File

// resultFile is the on-disk document shape.
type resultFile struct {
	Tests []Test `json:"tests"`
}

// Load reads all result files matching prefix in dir, ordered by the date
// embedded in their names. Files whose names carry no parseable date are
// skipped.
func Load(dir, prefix string) (History, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob result files: %w", err)
	}

	var history History
	for _, path := range matches {
		date, ok := parseDate(path, prefix)
		if !ok {
			continue
		}

		f, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		f.Date = date
		history = append(history, *f)
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})
	return history, nil
}

func parseDate(path, prefix string) (time.Time, bool) {
	base := filepath.Base(path)
	raw := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".json")
	date, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func parseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}

	var doc resultFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	tests := make(map[string]Test, len(doc.Tests))
	for _, t := range doc.Tests {
		tests[t.Name] = t
	}
	return &File{Path: path, tests: tests}, nil
}

// CaseName joins a case and a process count into the test name used in
// result files.
func CaseName(caseID string, numProcs int) string {
	return fmt.Sprintf("%s_np%d", caseID, numProcs)
}

// RunPassed reports whether the named test passed in the most recent run.
// False when the history is empty or the test is absent from the last file.
func (h History) RunPassed(name string) bool {
	if len(h) == 0 {
		return false
	}
	t, ok := h[len(h)-1].Test(name)
	return ok && t.Passed
}

// Timeline returns the wall times of one timer for one test across the
// history, oldest first. Runs missing the test or the timer contribute no
// point.
func (h History) Timeline(name, timer string) []float64 {
	var wtimes []float64
	for i := range h {
		t, ok := h[i].Test(name)
		if !ok {
			continue
		}
		if wt, ok := t.Timers[timer]; ok {
			wtimes = append(wtimes, wt)
		}
	}
	return wtimes
}

// Latest returns the most recent file, or nil for an empty history.
func (h History) Latest() *File {
	if len(h) == 0 {
		return nil
	}
	return &h[len(h)-1]
}
