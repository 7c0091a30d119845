// Package config provides configuration loading from environment variables
// and the optional machines file.
package config

import (
	"time"
)

// PipelineConfig holds configuration shared by the nightly driver and the
// archive publisher.
type PipelineConfig struct {
	DataRoot     string        // parent directory of per-machine data directories
	LogDir       string        // where step logs are written ("" = machine data dir)
	ReportFile   string        // fixed-name HTML report produced by the report step
	FragmentFile string        // HTML list-item fragment regenerated on publish
	MarkerPrefix string        // dated result file prefix (marker is <prefix><yyyymmdd>.json)
	CleanGlob    string        // stale output files removed before the report step
	StepTimeout  time.Duration // per-step timeout (0 = wait forever)

	NotebookCmd string // notebook execution command, machine name appended
	ConcatCmd   string // result concatenation command, machine name appended

	Runner      string // "local" or "docker"
	DockerImage string // image for the docker runner

	GitRemote string
	GitBranch string

	CallbackURL string // webhook destination for nightly events ("" = disabled)
	CallbackKey string // HMAC signing key for callbacks

	DashboardURL string // external test-log dashboard linked from reports ("" = no link)

	MetricsAddr string // listen address for /metrics ("" = disabled)

	MachinesFile string // optional YAML file overriding the builtin machines
}

// LoadPipelineConfig loads pipeline configuration from environment variables.
func LoadPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		DataRoot:     GetEnv("NIGHTLY_DATA_ROOT", "."),
		LogDir:       GetEnv("NIGHTLY_LOG_DIR", ""),
		ReportFile:   GetEnv("NIGHTLY_REPORT_FILE", "perf_tests.html"),
		FragmentFile: GetEnv("NIGHTLY_FRAGMENT_FILE", "latest_report.html"),
		MarkerPrefix: GetEnv("NIGHTLY_MARKER_PREFIX", "ctest-"),
		CleanGlob:    GetEnv("NIGHTLY_CLEAN_GLOB", "*.png"),
		StepTimeout:  GetDurationEnv("NIGHTLY_STEP_TIMEOUT", 0),
		NotebookCmd:  GetEnv("NIGHTLY_NOTEBOOK_CMD", "./run_notebook.sh"),
		ConcatCmd:    GetEnv("NIGHTLY_CONCAT_CMD", "./concat_results.sh"),
		Runner:       GetEnv("NIGHTLY_RUNNER", "local"),
		DockerImage:  GetEnv("NIGHTLY_DOCKER_IMAGE", ""),
		GitRemote:    GetEnv("NIGHTLY_GIT_REMOTE", "origin"),
		GitBranch:    GetEnv("NIGHTLY_GIT_BRANCH", "master"),
		CallbackURL:  GetEnv("NIGHTLY_CALLBACK_URL", ""),
		CallbackKey:  GetEnv("NIGHTLY_CALLBACK_KEY", ""),
		DashboardURL: GetEnv("NIGHTLY_DASHBOARD_URL", ""),
		MetricsAddr:  GetEnv("NIGHTLY_METRICS_ADDR", ""),
		MachinesFile: GetEnv("NIGHTLY_MACHINES_FILE", ""),
	}
}
