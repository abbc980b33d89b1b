package workflow

import (
	"context"
	"time"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/cutter"
)

// ProviderKind selects how a reference is resolved.
type ProviderKind string

const (
	ProviderAuto    ProviderKind = "auto"
	ProviderYouTube ProviderKind = "youtube"
	ProviderLocal   ProviderKind = "local"
)

// Source resolves references into timelines and source media files.
type Source interface {
	Timeline(ctx context.Context, ref string) (chapters.Timeline, error)
	Acquire(ctx context.Context, timeline chapters.Timeline, force bool) (string, error)
}

// BatchCutter cuts plan items from a source file.
type BatchCutter interface {
	CutBatch(ctx context.Context, source string, items []chapters.PlanItem, progress cutter.ProgressFunc) []chapters.CutResult
}

// Request describes one split invocation.
type Request struct {
	Ref             string
	Provider        ProviderKind
	DryRun          bool
	ForceRedownload bool
	// OnPlan is called once the plan is validated, before anything is written.
	OnPlan func(Report)
	// Progress receives one call per finished chapter, skipped ones included.
	Progress cutter.ProgressFunc
}

// Report summarizes a run.
type Report struct {
	RunID     string
	Provider  ProviderKind
	Timeline  chapters.Timeline
	VideoDir  string
	Plan      []chapters.PlanItem
	Estimate  time.Duration
	DryRun    bool
	Source    string
	Results   []chapters.CutResult
	Stats     chapters.ProcessingStats
	Elapsed   time.Duration
	Subtitles SubtitleReport
}

// SubtitleReport describes the subtitle stage of a run.
type SubtitleReport struct {
	// Skipped is set when subtitles are disabled or no track was found.
	Skipped    bool
	Reason     string
	TrackPath  string
	Language   string
	SyncIssues []string
	Results    []chapters.SubtitleSliceResult
}

// Failed reports whether any chapter failed to cut.
func (r Report) Failed() bool {
	for _, result := range r.Results {
		if !result.OK() {
			return true
		}
	}
	return false
}
