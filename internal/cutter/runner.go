package cutter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Runner executes an external command and returns its captured stderr.
// A non-zero exit is reported as an error exposing ExitCode() int.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (stderr string, err error)
}

// stderrLimit caps how much ffmpeg diagnostic output is kept per attempt.
const stderrLimit = 4096

// ExecRunner runs commands in their own process group so that a timeout kills
// ffmpeg together with any helpers it spawned.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for pipes after the group is killed.
	WaitDelay time.Duration
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stderr = stderr
	err := cmd.Run()
	out := strings.TrimSpace(stderr.String())
	if err != nil && ctx.Err() != nil {
		return out, fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return out, err
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
