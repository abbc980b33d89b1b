package deps

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// EncoderProbeTimeout bounds the `ffmpeg -encoders` listing.
const EncoderProbeTimeout = 10 * time.Second

// EncoderProbe asks ffmpeg whether it was built with a given encoder.
// Results are not cached: the answer can change between runs when drivers
// are installed or removed.
type EncoderProbe struct {
	FFmpeg  string
	Timeout time.Duration
}

// HasEncoder reports whether `ffmpeg -hide_banner -encoders` lists name.
// Any failure to run ffmpeg is reported as false.
func (p EncoderProbe) HasEncoder(ctx context.Context, name string) bool {
	encoders, err := p.Encoders(ctx)
	if err != nil {
		return false
	}
	_, ok := encoders[strings.TrimSpace(name)]
	return ok
}

// Encoders returns the set of encoder names ffmpeg reports.
func (p EncoderProbe) Encoders(ctx context.Context) (map[string]struct{}, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = EncoderProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := strings.TrimSpace(p.FFmpeg)
	if binary == "" {
		binary = "ffmpeg"
	}
	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	return parseEncoders(string(out)), nil
}

// parseEncoders reads lines such as " V....D h264_nvenc   NVIDIA NVENC H.264 encoder".
func parseEncoders(listing string) map[string]struct{} {
	encoders := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) != 6 || fields[1] == "=" {
			continue
		}
		flags := fields[0]
		if !strings.ContainsAny(flags[:1], "VAS") {
			continue
		}
		encoders[fields[1]] = struct{}{}
	}
	return encoders
}

// CheckDirectoryAccess reports whether path exists as a directory that the
// current user can read, write, and traverse.
func CheckDirectoryAccess(name, path string) Status {
	status := Status{Name: name, Command: path, Description: "Directory access"}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		status.Detail = "directory does not exist (it will be created)"
		status.Optional = true
		return status
	case err != nil:
		status.Detail = err.Error()
		return status
	case !info.IsDir():
		status.Detail = "path is not a directory"
		return status
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		status.Detail = fmt.Sprintf("insufficient permissions: %v", err)
		return status
	}
	status.Available = true
	return status
}
