package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("machine", "machine name is required")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}
	if err.Error() != "machine name is required" {
		t.Errorf("expected message 'machine name is required', got %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "machine" {
		t.Errorf("expected field 'machine', got %q", appErr.Field)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := NotFound("marker", "ctest-20260829.json")

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to match ErrNotFound")
	}
	if err.Error() != "marker ctest-20260829.json not found" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Resource != "marker" {
		t.Errorf("expected resource 'marker', got %q", appErr.Resource)
	}
}

func TestConflict(t *testing.T) {
	t.Parallel()
	err := Conflict("report", "perf_tests.html", "report already archived")

	if !errors.Is(err, ErrConflict) {
		t.Error("expected error to match ErrConflict")
	}
	if err.Error() != "report already archived" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestInternal(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("connection refused")
	err := Internal("git.push", cause)

	if !errors.Is(err, ErrInternal) {
		t.Error("expected error to match ErrInternal")
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Op != "git.push" {
		t.Errorf("expected op 'git.push', got %q", appErr.Op)
	}
	if appErr.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "validation", err: Validation("machine", "bad machine"), want: ExitUsage},
		{name: "not found", err: NotFound("marker", "x"), want: ExitNotFound},
		{name: "conflict", err: Conflict("report", "x", "already archived"), want: ExitConflict},
		{name: "internal", err: Internal("git.push", errors.New("boom")), want: ExitInternal},
		{name: "plain error", err: errors.New("boom"), want: ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
