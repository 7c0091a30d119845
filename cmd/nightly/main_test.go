package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"nightly/internal/apperrors"
)

func executeArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunNoArgs(t *testing.T) {
	t.Parallel()

	out, err := executeArgs(t, "run")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if code := apperrors.ExitCode(err); code != apperrors.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitUsage)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage message, got %q", out)
	}
}

func TestRunTooManyArgs(t *testing.T) {
	t.Parallel()

	_, err := executeArgs(t, "run", "blake", "waterman")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if code := apperrors.ExitCode(err); code != apperrors.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitUsage)
	}
}

func TestPublishNoArgs(t *testing.T) {
	t.Parallel()

	out, err := executeArgs(t, "publish")
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if code := apperrors.ExitCode(err); code != apperrors.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitUsage)
	}
	if !strings.Contains(out, "Usage:") {
		t.Errorf("expected usage message, got %q", out)
	}
}
