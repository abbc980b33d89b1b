package cutter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chaptersplit/internal/testsupport"
)

func TestExecRunnerReportsExitCodeAndStderr(t *testing.T) {
	script := testsupport.WriteScript(t, t.TempDir(), "ffmpeg", "echo 'Invalid argument' >&2\nexit 3\n")

	stderr, err := ExecRunner{}.Run(context.Background(), script, nil)
	var exitErr interface{ ExitCode() int }
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Fatalf("expected exit code 3, got %v", err)
	}
	if stderr != "Invalid argument" {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestExecRunnerKillsProcessGroupOnTimeout(t *testing.T) {
	script := testsupport.WriteScript(t, t.TempDir(), "ffmpeg", "sleep 30 &\nsleep 30\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	started := time.Now()
	_, err := ExecRunner{WaitDelay: time.Second}.Run(ctx, script, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 5*time.Second {
		t.Fatalf("runner did not return promptly: %v", elapsed)
	}
}

func TestTailBufferKeepsSuffix(t *testing.T) {
	buf := &tailBuffer{limit: 8}
	_, _ = buf.Write([]byte("0123456789"))
	_, _ = buf.Write([]byte("ab"))
	if got := buf.String(); got != "456789ab" {
		t.Fatalf("unexpected tail %q", got)
	}
	if !strings.HasSuffix(buf.String(), "ab") {
		t.Fatal("expected latest bytes to be kept")
	}
}
