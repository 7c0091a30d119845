package apperrors

import (
	"errors"
)

// Exit codes for the CLI. Usage errors exit 1 to match the historical
// behavior of the shell pipeline; other classes get distinct codes so cron
// wrappers can tell them apart.
const (
	ExitUsage    = 1
	ExitNotFound = 2
	ExitConflict = 3
	ExitInternal = 4
)

// ExitCode maps an error to the appropriate process exit code.
// A nil error maps to 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValidation):
		return ExitUsage
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrConflict):
		return ExitConflict
	default:
		return ExitInternal
	}
}
