// nightly drives the nightly performance-test pipeline and publishes its
// reports.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"nightly/internal/apperrors"
	"nightly/internal/config"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("nightly failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	// Usage is printed for argument errors only: each RunE silences it
	// before doing real work, so runtime failures log without the usage
	// dump. Errors themselves go through slog in main.
	root := &cobra.Command{
		Use:           "nightly",
		Short:         "Nightly performance-test pipeline driver and report publisher",
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newPublishCmd())
	return root
}

// machineArg validates the positional machine argument so argument errors
// share the usage exit code.
func machineArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return apperrors.Validation("machine",
			fmt.Sprintf("expected exactly one machine name argument, got %d", len(args)))
	}
	return nil
}

// loadMachines resolves the machine list from the optional machines file.
func loadMachines(cfg *config.PipelineConfig) ([]config.Machine, error) {
	machines, err := config.LoadMachines(cfg.MachinesFile)
	if err != nil {
		return nil, err
	}
	return machines, nil
}
