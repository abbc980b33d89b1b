package cutter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/config"
	"chaptersplit/internal/testsupport"
)

type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func (e exitError) ExitCode() int { return int(e) }

type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(ctx context.Context, call int, args []string) (string, error)
}

func (f *fakeRunner) Run(ctx context.Context, _ string, args []string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(args))
	call := len(f.calls)
	f.mu.Unlock()
	if f.handler == nil {
		return "", writeOutput(args)
	}
	return f.handler(ctx, call, args)
}

func (f *fakeRunner) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func writeOutput(args []string) error {
	return os.WriteFile(args[len(args)-1], []byte("segment"), 0o644)
}

type fakeProber struct {
	duration      func(path string) (float64, error)
	width, height int
	resErr        error
}

func (f fakeProber) Duration(_ context.Context, path string) (float64, error) {
	if f.duration == nil {
		return 60, nil
	}
	return f.duration(path)
}

func (f fakeProber) Resolution(context.Context, string) (int, int, error) {
	if f.resErr != nil {
		return 0, 0, f.resErr
	}
	return f.width, f.height, nil
}

type fakeEncoders map[string]bool

func (f fakeEncoders) HasEncoder(_ context.Context, name string) bool { return f[name] }

type fixture struct {
	cfg    *config.Config
	source string
	runner *fakeRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	source := filepath.Join(testsupport.BaseDir(cfg), "cache", "abc.mp4")
	testsupport.WriteFile(t, source, 128)
	return &fixture{cfg: cfg, source: source, runner: &fakeRunner{}}
}

func (f *fixture) cutter(prober Prober, encoders EncoderProbe) *Cutter {
	return New(f.cfg, f.runner, prober, encoders, nil)
}

func (f *fixture) item(t *testing.T, index int, title string, start, end float64) chapters.PlanItem {
	t.Helper()
	chapter, err := chapters.NewChapter(index, title, start, end)
	if err != nil {
		t.Fatalf("NewChapter returned error: %v", err)
	}
	out := filepath.Join(f.cfg.Paths.OutDir, "Video-abc", fmt.Sprintf("%02d - %s.mp4", index, title))
	item, err := chapters.NewPlanItem("abc", chapter, out)
	if err != nil {
		t.Fatalf("NewPlanItem returned error: %v", err)
	}
	return item
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestCutMissingSourceRunsNothing(t *testing.T) {
	f := newFixture(t)
	c := f.cutter(fakeProber{}, nil)

	result := c.Cut(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), f.item(t, 1, "Intro", 0, 60))
	if result.Status != chapters.CutErr || !strings.Contains(result.Message, "source file not found") {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(f.runner.Calls()) != 0 {
		t.Fatal("expected no subprocess for missing source")
	}
}

func TestCutSoftwareSuccess(t *testing.T) {
	f := newFixture(t)
	c := f.cutter(fakeProber{duration: func(string) (float64, error) { return 59.9, nil }}, fakeEncoders{})
	item := f.item(t, 2, "Main", 60, 120)

	result := c.Cut(context.Background(), f.source, item)
	if !result.OK() {
		t.Fatalf("expected OK, got %+v", result)
	}
	if result.Attempts != 1 || result.Profile != "libx264/veryfast" || result.Message != "" {
		t.Fatalf("unexpected result metadata %+v", result)
	}
	if result.ObtainedDurationS == nil || *result.ObtainedDurationS != 59.9 {
		t.Fatalf("unexpected obtained duration %v", result.ObtainedDurationS)
	}

	calls := f.runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 ffmpeg call, got %d", len(calls))
	}
	want := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", f.source, "-ss", "00:01:00", "-to", "00:02:00",
		"-c:v", "libx264", "-crf", "18", "-preset", "veryfast",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart", "-map", "0", "-y", item.OutputPath,
	}
	if !slices.Equal(calls[0], want) {
		t.Fatalf("unexpected args\n got: %q\nwant: %q", calls[0], want)
	}
}

func TestCutHardwareProfile(t *testing.T) {
	f := newFixture(t)
	f.cfg.Hardware.Enabled = true
	c := f.cutter(fakeProber{}, fakeEncoders{"h264_nvenc": true})

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0.5, 60.5))
	if !result.OK() || result.Profile != "h264_nvenc/p4" {
		t.Fatalf("unexpected result %+v", result)
	}
	args := f.runner.Calls()[0]
	if argValue(args, "-hwaccel") != "cuda" || argValue(args, "-c:v") != "h264_nvenc" || argValue(args, "-cq") != "23" {
		t.Fatalf("expected NVENC args, got %q", args)
	}
	if argValue(args, "-c:a") != "copy" || argValue(args, "-b:a") != "" {
		t.Fatalf("expected audio copy on hardware path, got %q", args)
	}
	if argValue(args, "-ss") != "00:00:00.500" {
		t.Fatalf("expected millisecond start, got %q", argValue(args, "-ss"))
	}
}

func TestCutHardwareUnavailableFallsBack(t *testing.T) {
	f := newFixture(t)
	f.cfg.Hardware.Enabled = true
	c := f.cutter(fakeProber{}, fakeEncoders{})

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if !result.OK() || result.Profile != "libx264/veryfast" {
		t.Fatalf("expected software fallback, got %+v", result)
	}
	if argValue(f.runner.Calls()[0], "-hwaccel") != "" {
		t.Fatal("software path must not request hwaccel")
	}
}

func TestCutRetriesWithSlowerPreset(t *testing.T) {
	f := newFixture(t)
	f.cfg.Hardware.Enabled = true
	f.runner.handler = func(_ context.Context, call int, args []string) (string, error) {
		if call == 1 {
			return "Error initializing output stream", exitError(1)
		}
		return "", writeOutput(args)
	}
	c := f.cutter(fakeProber{}, fakeEncoders{"h264_nvenc": true})

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if !result.OK() {
		t.Fatalf("expected retry to succeed, got %+v", result)
	}
	if result.Message != "succeeded with preset faster (retry)" || result.Attempts != 2 {
		t.Fatalf("unexpected retry metadata %+v", result)
	}
	calls := f.runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	retry := calls[1]
	if argValue(retry, "-c:v") != "libx264" || argValue(retry, "-preset") != "faster" || argValue(retry, "-hwaccel") != "" {
		t.Fatalf("expected software retry at faster preset, got %q", retry)
	}
	if f.cfg.Encoding.Preset != "veryfast" || c.Software.Preset != "veryfast" {
		t.Fatal("retry must not mutate configured preset")
	}
}

func TestCutRetryFailureReportsExitCode(t *testing.T) {
	f := newFixture(t)
	f.runner.handler = func(context.Context, int, []string) (string, error) {
		return "boom", exitError(1)
	}
	c := f.cutter(fakeProber{}, nil)

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if result.Status != chapters.CutErr || result.Message != "ffmpeg failed (exit 1): boom" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Attempts != 2 || len(f.runner.Calls()) != 2 {
		t.Fatalf("expected exactly one retry, got attempts=%d calls=%d", result.Attempts, len(f.runner.Calls()))
	}
}

func TestCutNoRetryWhenDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Validation.MaxRetries = 0
	f.runner.handler = func(context.Context, int, []string) (string, error) {
		return "", exitError(69)
	}
	c := f.cutter(fakeProber{}, nil)

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if result.Message != "ffmpeg failed (exit 69)" || len(f.runner.Calls()) != 1 {
		t.Fatalf("unexpected result %+v calls=%d", result, len(f.runner.Calls()))
	}
}

func TestCutDurationMismatchIsNotRetried(t *testing.T) {
	f := newFixture(t)
	c := f.cutter(fakeProber{duration: func(string) (float64, error) { return 59.5, nil }}, nil)

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if result.Status != chapters.CutErr || result.Message != "duration error: 0.50s" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.ObtainedDurationS == nil || *result.ObtainedDurationS != 59.5 {
		t.Fatalf("expected obtained duration to be recorded, got %v", result.ObtainedDurationS)
	}
	if len(f.runner.Calls()) != 1 {
		t.Fatalf("duration mismatch must not retry, got %d calls", len(f.runner.Calls()))
	}
}

func TestCutOutputMissingAndProbeFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.handler = func(context.Context, int, []string) (string, error) { return "", nil }
	c := f.cutter(fakeProber{}, nil)
	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if result.Message != "output file not created" {
		t.Fatalf("unexpected result %+v", result)
	}

	g := newFixture(t)
	c = g.cutter(fakeProber{duration: func(string) (float64, error) { return 0, errors.New("invalid data") }}, nil)
	result = c.Cut(context.Background(), g.source, g.item(t, 1, "Intro", 0, 60))
	if result.Status != chapters.CutErr || !strings.HasPrefix(result.Message, "duration probe failed") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCutTimeoutIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.runner.handler = func(ctx context.Context, _ int, _ []string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	c := f.cutter(fakeProber{}, nil)
	c.CutTimeout = 20 * time.Millisecond

	result := c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if result.Message != "ffmpeg timeout (>20ms)" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(f.runner.Calls()) != 1 {
		t.Fatalf("timeout must not retry, got %d calls", len(f.runner.Calls()))
	}
}

func TestCutCrop(t *testing.T) {
	f := newFixture(t)
	f.cfg.Crop = config.Crop{Enabled: true, Top: 40, Bottom: 40, Left: 60, Right: 60, MinWidth: 640, MinHeight: 480}
	c := f.cutter(fakeProber{width: 1920, height: 1080}, nil)
	c.Cut(context.Background(), f.source, f.item(t, 1, "Intro", 0, 60))
	if vf := argValue(f.runner.Calls()[0], "-vf"); vf != "crop=1800:1000:60:40" {
		t.Fatalf("unexpected crop filter %q", vf)
	}

	g := newFixture(t)
	g.cfg.Crop = f.cfg.Crop
	g.cfg.Hardware.Enabled = true
	c = g.cutter(fakeProber{width: 1920, height: 1080}, fakeEncoders{"h264_nvenc": true})
	c.Cut(context.Background(), g.source, g.item(t, 1, "Intro", 0, 60))
	if vf := argValue(g.runner.Calls()[0], "-vf"); vf != "hwupload_cuda,crop=1800:1000:60:40,hwdownload" {
		t.Fatalf("unexpected hardware crop filter %q", vf)
	}

	h := newFixture(t)
	h.cfg.Crop = f.cfg.Crop
	c = h.cutter(fakeProber{width: 640, height: 480}, nil)
	result := c.Cut(context.Background(), h.source, h.item(t, 1, "Intro", 0, 60))
	if !result.OK() || argValue(h.runner.Calls()[0], "-vf") != "" {
		t.Fatalf("expected crop below minimum to be skipped, got %+v", result)
	}
}

func TestCutBatchPreservesOrderAndSerializesProgress(t *testing.T) {
	f := newFixture(t)
	f.cfg.Parallel.MaxWorkers = 3
	delays := map[string]time.Duration{"01": 30 * time.Millisecond, "02": 5 * time.Millisecond, "03": 15 * time.Millisecond, "04": 0}
	f.runner.handler = func(_ context.Context, _ int, args []string) (string, error) {
		time.Sleep(delays[filepath.Base(args[len(args)-1])[:2]])
		return "", writeOutput(args)
	}
	c := f.cutter(fakeProber{duration: func(string) (float64, error) { return 30, nil }}, nil)

	var items []chapters.PlanItem
	for i := 1; i <= 4; i++ {
		items = append(items, f.item(t, i, fmt.Sprintf("Part %d", i), float64(i-1)*30, float64(i)*30))
	}

	var seen []int
	inProgress := false
	results := c.CutBatch(context.Background(), f.source, items, func(completed, total int, label string) {
		if inProgress {
			t.Error("progress callback re-entered")
		}
		inProgress = true
		defer func() { inProgress = false }()
		if total != 4 || label == "" {
			t.Errorf("unexpected progress args %d/%d %q", completed, total, label)
		}
		seen = append(seen, completed)
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, result := range results {
		if result.ChapterIndex != i+1 || !result.OK() {
			t.Fatalf("result %d out of order or failed: %+v", i, result)
		}
	}
	if !slices.Equal(seen, []int{1, 2, 3, 4}) {
		t.Fatalf("unexpected progress sequence %v", seen)
	}
}

func TestCutBatchSkipsExistingOnSecondRun(t *testing.T) {
	f := newFixture(t)
	c := f.cutter(fakeProber{duration: func(string) (float64, error) { return 60, nil }}, nil)
	items := []chapters.PlanItem{f.item(t, 1, "Intro", 0, 60), f.item(t, 2, "Main", 60, 120)}

	first := c.CutBatch(context.Background(), f.source, items, nil)
	for _, result := range first {
		if !result.OK() || result.Skipped {
			t.Fatalf("unexpected first-run result %+v", result)
		}
	}
	before := len(f.runner.Calls())

	infos := make([]os.FileInfo, len(items))
	for i, item := range items {
		info, err := os.Stat(item.OutputPath)
		if err != nil {
			t.Fatalf("stat output: %v", err)
		}
		infos[i] = info
	}

	second := c.CutBatch(context.Background(), f.source, items, nil)
	if len(f.runner.Calls()) != before {
		t.Fatal("expected no ffmpeg calls on second run")
	}
	for i, result := range second {
		if !result.OK() || !result.Skipped || result.Message != "existing file (skipped)" || result.ProcessingTime != 0 {
			t.Fatalf("unexpected skipped result %+v", result)
		}
		info, err := os.Stat(items[i].OutputPath)
		if err != nil {
			t.Fatalf("stat output: %v", err)
		}
		if !info.ModTime().Equal(infos[i].ModTime()) {
			t.Fatal("expected output to be untouched")
		}
	}
}

func TestCutBatchCancelled(t *testing.T) {
	f := newFixture(t)
	c := f.cutter(fakeProber{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.CutBatch(ctx, f.source, []chapters.PlanItem{f.item(t, 1, "Intro", 0, 60)}, nil)
	if results[0].Status != chapters.CutErr || !strings.HasPrefix(results[0].Message, "cancelled") {
		t.Fatalf("unexpected result %+v", results[0])
	}
	if len(f.runner.Calls()) != 0 {
		t.Fatal("expected no ffmpeg calls after cancellation")
	}
}
