package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/config"
	"chaptersplit/internal/cutter"
	"chaptersplit/internal/deps"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/media/ffprobe"
	"chaptersplit/internal/planner"
	"chaptersplit/internal/provider/local"
	"chaptersplit/internal/provider/youtube"
	"chaptersplit/internal/services"
	"chaptersplit/internal/subtitles"
)

// SubtitleFinder locates a subtitle track for a video.
type SubtitleFinder interface {
	Find(ctx context.Context, videoID, url string) (subtitles.Track, error)
}

// Runner coordinates a split run.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	prober      *ffprobe.Prober
	durations   planner.DurationProber
	youtube     Source
	local       Source
	chapterFile string
	cutter      BatchCutter
	finder      SubtitleFinder
	planner     *planner.Planner
	slicer      *subtitles.Slicer
	newRunID    func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSources replaces the YouTube and local providers. A nil value keeps the
// default for that kind.
func WithSources(yt, file Source) Option {
	return func(r *Runner) {
		r.youtube = yt
		r.local = file
	}
}

// WithChapterSheet points the default local provider at an explicit sheet.
func WithChapterSheet(path string) Option {
	return func(r *Runner) { r.chapterFile = strings.TrimSpace(path) }
}

// WithCutter replaces the ffmpeg cutter.
func WithCutter(c BatchCutter) Option {
	return func(r *Runner) { r.cutter = c }
}

// WithSubtitleFinder replaces the subtitle locator.
func WithSubtitleFinder(f SubtitleFinder) Option {
	return func(r *Runner) { r.finder = f }
}

// WithDurationProber replaces the prober used to validate existing outputs.
func WithDurationProber(p planner.DurationProber) Option {
	return func(r *Runner) { r.durations = p }
}

// WithRunIDGenerator overrides run ID generation.
func WithRunIDGenerator(fn func() string) Option {
	return func(r *Runner) { r.newRunID = fn }
}

// New wires a Runner from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		prober:   ffprobe.NewProber(cfg.FFprobeBinary(), cfg.ProbeTimeout()),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.durations == nil {
		r.durations = r.prober
	}

	var client *youtube.Client
	if r.youtube == nil || (r.finder == nil && cfg.Subtitles.AutoDownload) {
		client = youtube.New(cfg, logger)
	}
	if r.youtube == nil {
		r.youtube = client
	}
	if r.local == nil {
		r.local = local.New(r.prober, r.chapterFile, logger)
	}
	if r.cutter == nil {
		c := cutter.New(cfg, cutter.ExecRunner{}, r.prober, deps.EncoderProbe{FFmpeg: cfg.FFmpegBinary()}, logger)
		// Existing outputs are filtered before the batch starts.
		c.SkipExisting = false
		r.cutter = c
	}
	r.planner = planner.New(cfg, r.durations, logger)
	if r.finder == nil {
		var downloader subtitles.Downloader
		if client != nil {
			downloader = client
		}
		r.finder = subtitles.NewLocator(cfg, downloader, logger)
	}
	r.slicer = subtitles.NewSlicer(cfg, r.planner, logger)
	return r
}

// Planner exposes the planner used for naming and validation.
func (r *Runner) Planner() *planner.Planner {
	return r.planner
}

// ResolveProvider returns the concrete provider kind for ref.
func ResolveProvider(kind ProviderKind, ref string) (ProviderKind, error) {
	switch ProviderKind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case "", ProviderAuto:
		if youtube.ValidURL(ref) {
			return ProviderYouTube, nil
		}
		if strings.Contains(ref, "://") {
			return "", services.Wrap(services.ErrValidation, "workflow", "resolve provider", "unsupported URL "+ref, nil)
		}
		return ProviderLocal, nil
	case ProviderYouTube:
		return ProviderYouTube, nil
	case ProviderLocal:
		return ProviderLocal, nil
	default:
		return "", services.Wrap(services.ErrValidation, "workflow", "resolve provider", fmt.Sprintf("unknown provider %q", kind), nil)
	}
}

func (r *Runner) source(kind ProviderKind) Source {
	if kind == ProviderYouTube {
		return r.youtube
	}
	return r.local
}

// Prepare resolves the timeline and builds the validated plan without
// touching the filesystem.
func (r *Runner) Prepare(ctx context.Context, req Request) (Report, error) {
	ref := strings.TrimSpace(req.Ref)
	if ref == "" {
		return Report{}, services.Wrap(services.ErrValidation, "workflow", "prepare", "reference is empty", nil)
	}
	kind, err := ResolveProvider(req.Provider, ref)
	if err != nil {
		return Report{}, err
	}
	report := Report{Provider: kind}
	if id, ok := services.RunIDFromContext(ctx); ok {
		report.RunID = id
	}

	logger := logging.WithContext(ctx, r.logger)
	timeline, err := r.source(kind).Timeline(services.WithStage(ctx, "timeline"), ref)
	if err != nil {
		return report, fmt.Errorf("build timeline: %w", err)
	}
	report.Timeline = timeline
	logger.Info("timeline resolved",
		logging.String("provider", string(kind)),
		logging.String("video_id", timeline.ID),
		logging.String("title", timeline.Title),
		logging.Int("chapters", len(timeline.Chapters)),
		logging.Duration("duration", time.Duration(timeline.DurationS*float64(time.Second))),
	)

	plan, err := r.planner.BuildPlan(timeline, r.cfg.Paths.OutDir)
	if err != nil {
		return report, err
	}
	report.Plan = plan
	report.VideoDir = r.planner.VideoDir(timeline, r.cfg.Paths.OutDir)
	report.Estimate = planner.EstimateTime(plan, r.cfg.Encoding.Preset, r.cfg.Parallel.MaxWorkers)
	return report, nil
}

// Run executes a split. Per-chapter failures land in the report; the error
// is reserved for failures that stop the whole run.
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	started := time.Now()
	runID := r.newRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	report, err := r.Prepare(ctx, req)
	report.RunID = runID
	if err != nil {
		logging.ErrorWithContext(logger, "run aborted", "run_aborted",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the reference and chapter data"),
		)
		return report, err
	}
	if req.OnPlan != nil {
		req.OnPlan(report)
	}

	if req.DryRun || r.cfg.Run.DryRun {
		report.DryRun = true
		report.Elapsed = time.Since(started)
		logger.Info("dry run complete",
			logging.Int("chapters", len(report.Plan)),
			logging.Duration("estimate", report.Estimate),
		)
		return report, nil
	}

	source, err := r.source(report.Provider).Acquire(services.WithStage(ctx, "acquire"), report.Timeline, req.ForceRedownload)
	if err != nil {
		logging.ErrorWithContext(logger, "source acquisition failed", "acquire_failed", logging.Error(err))
		return report, fmt.Errorf("acquire source: %w", err)
	}
	report.Source = source

	lock, err := lockOutputDir(report.VideoDir)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	report.Results = r.cut(services.WithStage(ctx, "cut"), report.Plan, source, req.Progress)
	for _, result := range report.Results {
		report.Stats.Add(result)
	}

	report.Subtitles = r.sliceSubtitles(services.WithStage(ctx, "subtitles"), report)
	report.Elapsed = time.Since(started)

	logger.Info("run complete",
		logging.Int("processed", report.Stats.Processed),
		logging.Int("skipped", report.Stats.Skipped),
		logging.Int("failed", report.Stats.Failed),
		logging.Float64("success_rate", report.Stats.SuccessRate()),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// cut filters out valid existing outputs and cuts the rest. Results follow
// plan order.
func (r *Runner) cut(ctx context.Context, plan []chapters.PlanItem, source string, progress cutter.ProgressFunc) []chapters.CutResult {
	logger := logging.WithContext(ctx, r.logger)
	toProcess := plan
	var existing []chapters.PlanItem
	if r.cfg.Run.SkipExisting {
		toProcess, existing = r.planner.FilterExisting(ctx, plan)
	}

	byPath := make(map[string]chapters.CutResult, len(plan))
	done := 0
	for _, item := range existing {
		result := chapters.NewCutResult(item)
		result.Status = chapters.CutOK
		result.Skipped = true
		result.Message = "existing file (skipped)"
		byPath[item.OutputPath] = result
		done++
		if progress != nil {
			progress(done, len(plan), item.ChapterTitle)
		}
	}
	if len(existing) > 0 {
		logger.Info("skipping existing outputs", logging.Int("count", len(existing)))
	}

	var batchProgress cutter.ProgressFunc
	if progress != nil {
		batchProgress = func(completed, _ int, label string) {
			progress(done+completed, len(plan), label)
		}
	}
	for _, result := range r.cutter.CutBatch(ctx, source, toProcess, batchProgress) {
		byPath[result.OutputPath] = result
	}

	results := make([]chapters.CutResult, 0, len(plan))
	for _, item := range plan {
		result, ok := byPath[item.OutputPath]
		if !ok {
			result = chapters.NewCutResult(item)
			result.Status = chapters.CutErr
			result.Message = "no result reported"
		}
		results = append(results, result)
	}
	return results
}

func (r *Runner) sliceSubtitles(ctx context.Context, report Report) SubtitleReport {
	logger := logging.WithContext(ctx, r.logger)
	if !r.cfg.Subtitles.Enabled {
		return SubtitleReport{Skipped: true, Reason: "subtitles disabled"}
	}

	url := ""
	if report.Provider == ProviderYouTube {
		url = report.Timeline.URL
	}
	track, err := r.finder.Find(ctx, report.Timeline.ID, url)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Info("no subtitles found; skipping", logging.Error(err))
			return SubtitleReport{Skipped: true, Reason: "no subtitles found"}
		}
		logging.WarnWithContext(logger, "subtitle lookup failed", "subtitle_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "chapters are cut without subtitles"),
		)
		return SubtitleReport{Skipped: true, Reason: err.Error()}
	}

	out := SubtitleReport{TrackPath: track.Path, Language: track.Language}
	out.SyncIssues = subtitles.ValidateSync(track, report.Timeline.DurationS)
	for _, issue := range out.SyncIssues {
		logging.WarnWithContext(logger, "subtitle track may be out of sync", "subtitle_sync",
			logging.String("issue", issue),
			logging.String(logging.FieldErrorHint, "adjust subtitles.offset_seconds or supply a matching track"),
			logging.String(logging.FieldImpact, "sliced subtitles may drift"),
		)
	}

	chs := make([]chapters.Chapter, 0, len(report.Plan))
	for _, item := range report.Plan {
		chs = append(chs, item.Chapter())
	}
	out.Results = r.slicer.Slice(track, chs, report.VideoDir)
	return out
}
