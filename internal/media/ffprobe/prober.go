package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"chaptersplit/internal/services"
)

// DefaultTimeout bounds each ffprobe invocation.
const DefaultTimeout = 30 * time.Second

// DefaultFrameRate is assumed when a stream does not report a usable rate.
const DefaultFrameRate = 25.0

// ProbeError describes a failed media query.
type ProbeError struct {
	Op   string
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("ffprobe %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the cause and the classification sentinel.
func (e *ProbeError) Unwrap() []error {
	marker := services.ErrExternalTool
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		marker = services.ErrTimeout
	case errors.Is(e.Err, os.ErrNotExist):
		marker = services.ErrNotFound
	}
	return []error{marker, e.Err}
}

// Prober runs bounded ffprobe queries against local media files.
type Prober struct {
	Binary  string
	Timeout time.Duration
}

// NewProber returns a Prober for binary with the default timeout when
// timeout is not positive.
func NewProber(binary string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{Binary: binary, Timeout: timeout}
}

// Duration returns the container duration of path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if err := requireFile(path); err != nil {
		return 0, &ProbeError{Op: "duration", Path: path, Err: err}
	}
	out, err := p.run(ctx, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, &ProbeError{Op: "duration", Path: path, Err: err}
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, &ProbeError{Op: "duration", Path: path, Err: fmt.Errorf("invalid duration %q", strings.TrimSpace(out))}
	}
	return value, nil
}

// Resolution returns the width and height of the first video stream.
func (p *Prober) Resolution(ctx context.Context, path string) (int, int, error) {
	result, err := p.inspect(ctx, "resolution", path)
	if err != nil {
		return 0, 0, err
	}
	width, height, ok := result.VideoResolution()
	if !ok {
		return 0, 0, &ProbeError{Op: "resolution", Path: path, Err: errors.New("no video stream with dimensions")}
	}
	return width, height, nil
}

// KeyframeTimes returns up to limit keyframe timestamps of the first video
// stream in ascending order. limit <= 0 means no limit.
func (p *Prober) KeyframeTimes(ctx context.Context, path string, limit int) ([]float64, error) {
	if err := requireFile(path); err != nil {
		return nil, &ProbeError{Op: "keyframes", Path: path, Err: err}
	}
	out, err := p.run(ctx, "-v", "error", "-select_streams", "v:0", "-skip_frame", "nokey",
		"-show_entries", "frame=pts_time", "-of", "csv=p=0", path)
	if err != nil {
		return nil, &ProbeError{Op: "keyframes", Path: path, Err: err}
	}
	var times []float64
	for _, line := range strings.Split(out, "\n") {
		value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ",")), 64)
		if err != nil {
			continue
		}
		times = append(times, value)
		if limit > 0 && len(times) >= limit {
			break
		}
	}
	slices.Sort(times)
	return times, nil
}

// MediaInfo summarizes a validated media file.
type MediaInfo struct {
	Path      string
	SizeBytes int64
	DurationS float64
	Width     int
	Height    int
	FrameRate float64
	HasAudio  bool
}

// Validate checks that path is a non-empty file with a video stream and
// returns its main properties.
func (p *Prober) Validate(ctx context.Context, path string) (MediaInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return MediaInfo{}, &ProbeError{Op: "validate", Path: path, Err: err}
	}
	if info.Size() == 0 {
		return MediaInfo{}, &ProbeError{Op: "validate", Path: path, Err: errors.New("file is empty")}
	}
	result, err := p.inspect(ctx, "validate", path)
	if err != nil {
		return MediaInfo{}, err
	}
	if !result.HasVideo() {
		return MediaInfo{}, &ProbeError{Op: "validate", Path: path, Err: errors.New("no video stream")}
	}
	width, height, _ := result.VideoResolution()
	fps, ok := result.FrameRate()
	if !ok {
		fps = DefaultFrameRate
	}
	return MediaInfo{
		Path:      path,
		SizeBytes: info.Size(),
		DurationS: result.DurationSeconds(),
		Width:     width,
		Height:    height,
		FrameRate: fps,
		HasAudio:  result.HasAudio(),
	}, nil
}

func (p *Prober) inspect(ctx context.Context, op, path string) (Result, error) {
	if err := requireFile(path); err != nil {
		return Result{}, &ProbeError{Op: op, Path: path, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	result, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (>%s)", context.DeadlineExceeded, p.timeout())
		}
		return Result{}, &ProbeError{Op: op, Path: path, Err: err}
	}
	return result, nil
}

func (p *Prober) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w (>%s)", context.DeadlineExceeded, p.timeout())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("exit %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return string(out), nil
}

func (p *Prober) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
