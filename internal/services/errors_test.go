package services_test

import (
	"errors"
	"strings"
	"testing"

	"chaptersplit/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "cutter", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"cutter", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "planner", "build", "overlap", nil)
	if code := services.ExitCode(validationErr); code != services.ExitInvalid {
		t.Fatalf("expected invalid exit for validation error, got %d", code)
	}

	toolErr := services.Wrap(services.ErrExternalTool, "provider", "yt-dlp", "failed", errors.New("exit 1"))
	if code := services.ExitCode(toolErr); code != services.ExitFailure {
		t.Fatalf("expected failure exit for tool error, got %d", code)
	}

	if code := services.ExitCode(nil); code != 0 {
		t.Fatalf("expected zero exit for nil error, got %d", code)
	}
}
