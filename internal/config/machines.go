package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Machine describes one test machine: where its nightly data lives and
// which cases and timers the performance report covers.
type Machine struct {
	Name     string   `yaml:"name"`
	DataDir  string   `yaml:"dataDir"` // relative to DataRoot unless absolute
	Cases    []string `yaml:"cases"`
	NumProcs int      `yaml:"numProcs"`
	Timers   []string `yaml:"timers"`
}

// defaultCases and defaultTimers match the land-ice performance suite the
// pipeline was built for.
var defaultCases = []string{
	"ant-2-20km_ml_line",
	"ant-2-20km_muelu_line",
	"ant-2-20km_muelu_decoupled_line",
}

var defaultTimers = []string{
	"Albany: Total Time:",
	"Albany: **Total Fill Time**:",
	"NOX Total Preconditioner Construction:",
	"NOX Total Linear Solve:",
}

// DefaultMachines returns the builtin machine set. Exactly these two names
// are recognized unless a machines file overrides them.
func DefaultMachines() []Machine {
	return []Machine{
		{
			Name:     "blake",
			DataDir:  "blake_nightly_data",
			Cases:    defaultCases,
			NumProcs: 384,
			Timers:   defaultTimers,
		},
		{
			Name:     "waterman",
			DataDir:  "waterman_nightly_data",
			Cases:    defaultCases,
			NumProcs: 40,
			Timers:   defaultTimers,
		},
	}
}

// machinesFile is the YAML document shape of a machines file.
type machinesFile struct {
	Machines []Machine `yaml:"machines"`
}

// LoadMachines returns the machine set from the given YAML file, or the
// builtin set when path is empty.
func LoadMachines(path string) ([]Machine, error) {
	if path == "" {
		return DefaultMachines(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machines file: %w", err)
	}

	var f machinesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse machines file: %w", err)
	}
	if len(f.Machines) == 0 {
		return nil, fmt.Errorf("machines file %s defines no machines", path)
	}

	for i := range f.Machines {
		m := &f.Machines[i]
		if m.Name == "" {
			return nil, fmt.Errorf("machines file %s: machine %d has no name", path, i)
		}
		if m.DataDir == "" {
			m.DataDir = m.Name + "_nightly_data"
		}
		if len(m.Cases) == 0 {
			m.Cases = defaultCases
		}
		if len(m.Timers) == 0 {
			m.Timers = defaultTimers
		}
	}
	return f.Machines, nil
}
