package cutter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/config"
	"chaptersplit/internal/fileutil"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

// Prober measures the media properties the cutter needs.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
	Resolution(ctx context.Context, path string) (int, int, error)
}

// EncoderProbe reports whether ffmpeg offers an encoder.
type EncoderProbe interface {
	HasEncoder(ctx context.Context, name string) bool
}

// ProgressFunc is invoked once per finished item. Calls are serialized.
type ProgressFunc func(completed, total int, label string)

// Cutter re-encodes plan items out of a source file with frame-accurate bounds.
type Cutter struct {
	FFmpeg       string
	Software     Profile
	Hardware     Profile
	UseHardware  bool
	Crop         config.Crop
	Tolerance    float64
	MaxRetries   int
	MaxWorkers   int
	SkipExisting bool
	CutTimeout   time.Duration

	runner   Runner
	prober   Prober
	encoders EncoderProbe
	logger   *slog.Logger
}

// New builds a Cutter from configuration. A nil runner selects ExecRunner.
func New(cfg *config.Config, runner Runner, prober Prober, encoders EncoderProbe, logger *slog.Logger) *Cutter {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Cutter{
		FFmpeg:       cfg.FFmpegBinary(),
		Software:     SoftwareProfile(cfg.Encoding),
		Hardware:     HardwareProfile(cfg.Hardware),
		UseHardware:  cfg.Hardware.Enabled,
		Crop:         cfg.Crop,
		Tolerance:    cfg.Validation.ToleranceSeconds,
		MaxRetries:   cfg.Validation.MaxRetries,
		MaxWorkers:   cfg.Parallel.MaxWorkers,
		SkipExisting: cfg.Run.SkipExisting,
		CutTimeout:   cfg.CutTimeout(),
		runner:       runner,
		prober:       prober,
		encoders:     encoders,
		logger:       logging.NewComponentLogger(logger, "cutter"),
	}
}

// attempt is the outcome of one ffmpeg invocation plus verification.
type attempt struct {
	status    chapters.CutStatus
	message   string
	obtained  *float64
	retryable bool
}

// Cut produces item.OutputPath from source. Failures are reported in the
// returned result rather than as an error.
func (c *Cutter) Cut(ctx context.Context, source string, item chapters.PlanItem) chapters.CutResult {
	started := time.Now()
	ctx = services.WithChapterIndex(ctx, item.ChapterIndex)
	logger := logging.WithContext(ctx, c.logger)
	result := chapters.NewCutResult(item)

	finish := func(a attempt) chapters.CutResult {
		result.Status = a.status
		result.Message = a.message
		result.ObtainedDurationS = a.obtained
		result.ProcessingTime = time.Since(started)
		if a.status == chapters.CutOK {
			logger.Info("segment written",
				logging.OutputPath(item.OutputPath),
				logging.Seconds("expected_s", item.ExpectedDurationS),
				logging.Seconds("obtained_s", a.obtained),
				logging.String("profile", result.Profile),
				logging.Int("attempts", result.Attempts),
				logging.Duration("elapsed", result.ProcessingTime),
			)
		} else {
			logging.WarnWithContext(logger, "segment failed", "cut_failed",
				logging.OutputPath(item.OutputPath),
				logging.String("reason", a.message),
				logging.String(logging.FieldErrorHint, "rerun with --verbose to see the ffmpeg command"),
			)
		}
		return result
	}

	if info, err := os.Stat(source); err != nil || info.IsDir() {
		return finish(attempt{status: chapters.CutErr, message: fmt.Sprintf("source file not found: %s", source)})
	}
	if err := os.MkdirAll(filepath.Dir(item.OutputPath), 0o755); err != nil {
		return finish(attempt{status: chapters.CutErr, message: fmt.Sprintf("create output directory: %v", err)})
	}

	profile := c.selectProfile(ctx)
	crop := c.cropFilter(ctx, logger, source)

	result.Attempts = 1
	result.Profile = profile.String()
	outcome := c.run(ctx, logger, source, item, profile, crop)
	if outcome.status == chapters.CutOK || !outcome.retryable || c.MaxRetries <= 0 {
		return finish(outcome)
	}

	retry := c.Software.WithPreset(NextSlowerPreset(c.Software.Preset))
	logger.Info("retrying cut with slower preset",
		logging.String("preset", retry.Preset),
		logging.String("first_error", outcome.message),
	)
	result.Attempts = 2
	result.Profile = retry.String()
	outcome = c.run(ctx, logger, source, item, retry, crop)
	if outcome.status == chapters.CutOK {
		outcome.message = fmt.Sprintf("succeeded with preset %s (retry)", retry.Preset)
	}
	return finish(outcome)
}

func (c *Cutter) selectProfile(ctx context.Context) Profile {
	if c.UseHardware && c.encoders != nil && c.encoders.HasEncoder(ctx, c.Hardware.Encoder) {
		return c.Hardware
	}
	return c.Software
}

func (c *Cutter) cropFilter(ctx context.Context, logger *slog.Logger, source string) string {
	if !c.Crop.Enabled {
		return ""
	}
	width, height, err := c.prober.Resolution(ctx, source)
	if err != nil {
		logging.WarnWithContext(logger, "crop disabled: source resolution unavailable", "crop_skipped",
			logging.Error(err),
			logging.String(logging.FieldImpact, "segment keeps its original frame"),
		)
		return ""
	}
	filter, err := CropFilter(width, height, c.Crop)
	if err != nil {
		logging.WarnWithContext(logger, "crop disabled", "crop_skipped",
			logging.Error(err),
			logging.String(logging.FieldImpact, "segment keeps its original frame"),
		)
		return ""
	}
	return filter
}

func (c *Cutter) run(ctx context.Context, logger *slog.Logger, source string, item chapters.PlanItem, profile Profile, crop string) attempt {
	args, err := BuildArgs(source, item, profile, crop)
	if err != nil {
		return attempt{status: chapters.CutErr, message: err.Error()}
	}
	logger.Debug("ffmpeg command", logging.String("binary", c.FFmpeg), logging.Any("args", args))

	timeout := c.CutTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	cutCtx, cancel := context.WithTimeout(ctx, timeout)
	stderr, err := c.runner.Run(cutCtx, c.FFmpeg, args)
	timedOut := errors.Is(cutCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()

	if err != nil {
		switch {
		case timedOut:
			return attempt{status: chapters.CutErr, message: fmt.Sprintf("ffmpeg timeout (>%s)", timeout)}
		case ctx.Err() != nil:
			return attempt{status: chapters.CutErr, message: fmt.Sprintf("cancelled: %v", ctx.Err())}
		}
		code := -1
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		message := fmt.Sprintf("ffmpeg failed (exit %d)", code)
		if stderr != "" {
			message += ": " + stderr
		} else if code < 0 {
			message += ": " + err.Error()
		}
		return attempt{status: chapters.CutErr, message: message, retryable: true}
	}

	if !fileutil.Exists(item.OutputPath) {
		return attempt{status: chapters.CutErr, message: "output file not created"}
	}
	obtained, err := c.prober.Duration(ctx, item.OutputPath)
	if err != nil {
		return attempt{status: chapters.CutErr, message: fmt.Sprintf("duration probe failed: %v", err)}
	}
	if !chapters.WithinTolerance(item.ExpectedDurationS, obtained, c.Tolerance) {
		return attempt{
			status:   chapters.CutErr,
			message:  fmt.Sprintf("duration error: %.2fs", math.Abs(item.ExpectedDurationS-obtained)),
			obtained: &obtained,
		}
	}
	return attempt{status: chapters.CutOK, obtained: &obtained}
}

// existing returns a skipped result when item's output already exists and
// probes within tolerance.
func (c *Cutter) existing(ctx context.Context, item chapters.PlanItem) (chapters.CutResult, bool) {
	if !c.SkipExisting || !fileutil.NonEmptyFile(item.OutputPath) {
		return chapters.CutResult{}, false
	}
	obtained, err := c.prober.Duration(ctx, item.OutputPath)
	if err != nil || !chapters.WithinTolerance(item.ExpectedDurationS, obtained, c.Tolerance) {
		return chapters.CutResult{}, false
	}
	result := chapters.NewCutResult(item)
	result.Status = chapters.CutOK
	result.Skipped = true
	result.Message = "existing file (skipped)"
	result.ObtainedDurationS = &obtained
	return result, true
}

// CutBatch cuts items on a bounded worker pool. Results are returned in item
// order regardless of completion order.
func (c *Cutter) CutBatch(ctx context.Context, source string, items []chapters.PlanItem, progress ProgressFunc) []chapters.CutResult {
	results := make([]chapters.CutResult, len(items))
	if len(items) == 0 {
		return results
	}

	workers := c.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, len(items))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(label string) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if progress != nil {
			progress(completed, len(items), label)
		}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item := items[i]
				if ctx.Err() != nil {
					result := chapters.NewCutResult(item)
					result.Status = chapters.CutErr
					result.Message = fmt.Sprintf("cancelled: %v", ctx.Err())
					results[i] = result
				} else if skipped, ok := c.existing(ctx, item); ok {
					results[i] = skipped
				} else {
					results[i] = c.Cut(ctx, source, item)
				}
				report(item.ChapterTitle)
			}
		}()
	}
	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	c.logger.Info("batch finished",
		logging.Int("items", len(items)),
		logging.Int("workers", workers),
	)
	return results
}
