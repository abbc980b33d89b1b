package planner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/config"
	"chaptersplit/internal/fileutil"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
	"chaptersplit/internal/textutil"
)

// EndSlackSeconds is how far a chapter may run past the reported duration.
// Providers round durations to whole seconds while chapter ends are exact.
const EndSlackSeconds = 1.0

// DurationProber measures media durations.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Planner turns a timeline into an ordered list of plan items.
type Planner struct {
	Naming      config.Naming
	VideoFormat string
	Tolerance   float64
	Prober      DurationProber
	logger      *slog.Logger
}

// New builds a Planner from configuration.
func New(cfg *config.Config, prober DurationProber, logger *slog.Logger) *Planner {
	return &Planner{
		Naming:      cfg.Naming,
		VideoFormat: cfg.Encoding.VideoFormat,
		Tolerance:   cfg.Validation.ToleranceSeconds,
		Prober:      prober,
		logger:      logging.NewComponentLogger(logger, "planner"),
	}
}

// VideoDir returns the per-video output directory: "<title>-<id>" under root.
func (p *Planner) VideoDir(timeline chapters.Timeline, outputRoot string) string {
	maxLen := p.Naming.DirTitleMaxLen
	if maxLen <= 0 {
		maxLen = 50
	}
	name := textutil.SanitizeFileName(timeline.Title, maxLen) + "-" + timeline.ID
	return filepath.Join(outputRoot, name)
}

// FileName renders the naming template for c and appends the container
// extension when ext is non-empty.
func (p *Planner) FileName(c chapters.Chapter, ext string) string {
	c.Title = textutil.NormalizeTitle(c.Title, p.Naming.TitleCase)
	name := textutil.SanitizeFileName(RenderTemplate(p.Naming.Template, c), p.Naming.SanitizeMaxLen)
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return name
}

// BuildPlan returns one PlanItem per chapter, in chapter order. The full plan
// is validated before it is returned; failures are *PlanningError values.
func (p *Planner) BuildPlan(timeline chapters.Timeline, outputRoot string) ([]chapters.PlanItem, error) {
	if len(timeline.Chapters) == 0 {
		return nil, &PlanningError{Reason: "no chapters to plan"}
	}

	videoDir := p.VideoDir(timeline, outputRoot)
	items := make([]chapters.PlanItem, 0, len(timeline.Chapters))
	for _, chapter := range timeline.Chapters {
		output := filepath.Join(videoDir, p.FileName(chapter, p.VideoFormat))
		item, err := chapters.NewPlanItem(timeline.ID, chapter, output)
		if err != nil {
			return nil, &PlanningError{
				ChapterIndexes: []int{chapter.Index},
				Reason:         fmt.Sprintf("duration %.2fs is not positive", chapter.DurationS()),
				Err:            err,
			}
		}
		items = append(items, item)
	}

	if err := Validate(items, timeline.DurationS); err != nil {
		return nil, err
	}
	p.logger.Debug("plan built",
		logging.String("video_id", timeline.ID),
		logging.Int("chapters", len(items)),
		logging.String("output_dir", videoDir),
	)
	return items, nil
}

// Validate checks a complete plan against the source duration: bounds, positive
// durations, no overlap, and distinct output paths.
func Validate(items []chapters.PlanItem, durationS float64) error {
	if len(items) == 0 {
		return &PlanningError{Reason: "empty plan"}
	}

	for _, item := range items {
		switch {
		case item.StartS < 0:
			return &PlanningError{ChapterIndexes: []int{item.ChapterIndex}, Reason: fmt.Sprintf("negative start %.3fs", item.StartS)}
		case item.EndS > durationS+EndSlackSeconds:
			return &PlanningError{ChapterIndexes: []int{item.ChapterIndex}, Reason: fmt.Sprintf("end %.3fs exceeds video duration %.3fs", item.EndS, durationS)}
		case item.ExpectedDurationS <= 0:
			return &PlanningError{ChapterIndexes: []int{item.ChapterIndex}, Reason: fmt.Sprintf("duration %.3fs is not positive", item.ExpectedDurationS)}
		}
	}

	sorted := make([]chapters.PlanItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartS < sorted[j].StartS })
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].EndS > sorted[i+1].StartS {
			return &PlanningError{
				ChapterIndexes: []int{sorted[i].ChapterIndex, sorted[i+1].ChapterIndex},
				Reason:         "chapters overlap",
			}
		}
	}

	seen := make(map[string]int, len(items))
	for _, item := range items {
		key := strings.ToLower(filepath.Clean(item.OutputPath))
		if first, ok := seen[key]; ok {
			return &PlanningError{
				ChapterIndexes: []int{first, item.ChapterIndex},
				Reason:         fmt.Sprintf("duplicate output file %q", filepath.Base(item.OutputPath)),
			}
		}
		seen[key] = item.ChapterIndex
	}
	return nil
}

// FilterExisting splits the plan into items that still need cutting and items
// whose output already exists, is non-empty, and probes within tolerance.
// Items whose output cannot be probed are reprocessed.
func (p *Planner) FilterExisting(ctx context.Context, plan []chapters.PlanItem) (toProcess, alreadyValid []chapters.PlanItem) {
	for _, item := range plan {
		if p.existingValid(ctx, item) {
			alreadyValid = append(alreadyValid, item)
			continue
		}
		toProcess = append(toProcess, item)
	}
	return toProcess, alreadyValid
}

func (p *Planner) existingValid(ctx context.Context, item chapters.PlanItem) bool {
	if p.Prober == nil || !fileutil.NonEmptyFile(item.OutputPath) {
		return false
	}
	obtained, err := p.Prober.Duration(ctx, item.OutputPath)
	if err != nil {
		p.logger.Debug("existing output unreadable; will recut",
			logging.Chapter(item.ChapterIndex),
			logging.OutputPath(item.OutputPath),
			logging.Error(err),
		)
		return false
	}
	return chapters.WithinTolerance(item.ExpectedDurationS, obtained, p.Tolerance)
}

var presetMultipliers = map[string]float64{
	"ultrafast": 0.3,
	"superfast": 0.4,
	"veryfast":  0.5,
	"faster":    0.8,
	"fast":      1.0,
	"medium":    1.5,
	"slow":      2.0,
	"slower":    3.0,
	"veryslow":  5.0,
}

// EstimateTime guesses wall-clock encoding time for plan at the given preset
// spread over workers.
func EstimateTime(plan []chapters.PlanItem, preset string, workers int) time.Duration {
	if len(plan) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range plan {
		total += item.ExpectedDurationS
	}
	multiplier, ok := presetMultipliers[strings.ToLower(strings.TrimSpace(preset))]
	if !ok {
		multiplier = 1.0
	}
	seconds := total * multiplier
	if workers > 1 {
		seconds /= float64(min(workers, len(plan)))
	}
	return time.Duration(seconds * float64(time.Second))
}

// PlanningError reports why a plan was rejected.
type PlanningError struct {
	ChapterIndexes []int
	Reason         string
	Err            error
}

func (e *PlanningError) Error() string {
	if len(e.ChapterIndexes) == 0 {
		return "plan invalid: " + e.Reason
	}
	parts := make([]string, len(e.ChapterIndexes))
	for i, index := range e.ChapterIndexes {
		parts[i] = fmt.Sprintf("%d", index)
	}
	return fmt.Sprintf("plan invalid (chapter %s): %s", strings.Join(parts, ", "), e.Reason)
}

// Unwrap classifies planning failures as validation errors.
func (e *PlanningError) Unwrap() []error {
	if e.Err != nil {
		return []error{services.ErrValidation, e.Err}
	}
	return []error{services.ErrValidation}
}
