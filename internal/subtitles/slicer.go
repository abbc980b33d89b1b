package subtitles

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/config"
	"chaptersplit/internal/fileutil"
	"chaptersplit/internal/logging"
)

const (
	// offsetEpsilon is the smallest offset that is applied at all.
	offsetEpsilon = 1e-6
	// shiftMinGap keeps a shifted cue at least this long.
	shiftMinGap = 0.1
)

// Namer renders chapter file names. planner.Planner satisfies it.
type Namer interface {
	FileName(c chapters.Chapter, ext string) string
}

// Slicer re-windows a subtitle track into per-chapter SRT files.
type Slicer struct {
	OffsetSeconds float64
	MinDurationS  float64

	namer  Namer
	logger *slog.Logger
}

// NewSlicer builds a Slicer from the [subtitles] section.
func NewSlicer(cfg *config.Config, namer Namer, logger *slog.Logger) *Slicer {
	return &Slicer{
		OffsetSeconds: cfg.Subtitles.OffsetSeconds,
		MinDurationS:  cfg.MinSubtitleDuration(),
		namer:         namer,
		logger:        logging.NewComponentLogger(logger, "subtitles"),
	}
}

// Slice writes one SRT per chapter into outputDir and returns one result per
// chapter in input order. Chapters are processed sequentially.
func (s *Slicer) Slice(track Track, chs []chapters.Chapter, outputDir string) []chapters.SubtitleSliceResult {
	entries := ApplyOffset(track.Entries, s.OffsetSeconds)
	results := make([]chapters.SubtitleSliceResult, 0, len(chs))
	for _, chapter := range chs {
		results = append(results, s.sliceChapter(entries, chapter, outputDir))
	}

	written := 0
	for _, result := range results {
		if result.Status == chapters.SliceOK {
			written++
		}
	}
	s.logger.Info("subtitles sliced",
		logging.String("source", filepath.Base(track.Path)),
		logging.Int("chapters", len(chs)),
		logging.Int("with_subtitles", written),
	)
	return results
}

func (s *Slicer) sliceChapter(entries []chapters.SubtitleEntry, chapter chapters.Chapter, outputDir string) chapters.SubtitleSliceResult {
	result := chapters.SubtitleSliceResult{
		OutputPath:   filepath.Join(outputDir, s.namer.FileName(chapter, FormatSRT)),
		ChapterIndex: chapter.Index,
		ChapterTitle: chapter.Title,
		StartS:       chapter.StartS,
		EndS:         chapter.EndS,
	}

	kept, filtered := Window(entries, chapter.StartS, chapter.EndS, s.MinDurationS)
	result.FilteredCount = filtered
	result.EntryCount = len(kept)

	if err := fileutil.WriteFileAtomic(result.OutputPath, []byte(FormatSRT(kept)), 0o644); err != nil {
		result.Status = chapters.SliceError
		result.EntryCount = 0
		result.Message = err.Error()
		logging.WarnWithContext(s.logger, "subtitle write failed", "subtitle_write_failed",
			logging.Chapter(chapter.Index),
			logging.OutputPath(result.OutputPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the output directory"),
		)
		return result
	}

	if len(kept) == 0 {
		result.Status = chapters.SliceEmpty
		result.Message = "no subtitles in chapter"
		return result
	}
	result.Status = chapters.SliceOK
	result.Message = fmt.Sprintf("created with %d subtitles", len(kept))
	return result
}

// ApplyOffset shifts every entry by offset seconds. Offsets below one
// microsecond leave the entries untouched.
func ApplyOffset(entries []chapters.SubtitleEntry, offset float64) []chapters.SubtitleEntry {
	if math.Abs(offset) < offsetEpsilon {
		return entries
	}
	shifted := make([]chapters.SubtitleEntry, len(entries))
	for i, entry := range entries {
		shifted[i] = entry.Shift(offset, shiftMinGap)
	}
	return shifted
}

// Window selects the entries overlapping [start, end), clips and rebases them
// onto the chapter, and enforces minDuration. A short cue is extended to
// minDuration when it still fits inside the chapter and dropped otherwise;
// dropped cues are counted in filtered. Survivors are numbered from 1.
func Window(entries []chapters.SubtitleEntry, start, end, minDuration float64) (kept []chapters.SubtitleEntry, filtered int) {
	length := end - start
	for _, entry := range entries {
		if !entry.Overlaps(start, end) {
			continue
		}
		cue := entry.Clip(start, end).Rebase(start)
		if cue.DurationS() < minDuration {
			if cue.StartS+minDuration > length {
				filtered++
				continue
			}
			cue = cue.WithEnd(cue.StartS + minDuration)
		}
		kept = append(kept, cue.WithIndex(len(kept)+1))
	}
	return kept, filtered
}
