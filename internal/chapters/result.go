package chapters

import (
	"math"
	"time"
)

// CutStatus is the outcome of one cut.
type CutStatus string

const (
	CutOK  CutStatus = "OK"
	CutErr CutStatus = "ERR"
)

// CutResult records the outcome of cutting one PlanItem.
type CutResult struct {
	OutputPath        string
	ChapterIndex      int
	ChapterTitle      string
	StartS            float64
	EndS              float64
	ExpectedDurationS float64
	ObtainedDurationS *float64
	Status            CutStatus
	Message           string
	ProcessingTime    time.Duration
	Skipped           bool
	Attempts          int
	Profile           string
}

// NewCutResult seeds a result from the plan item it describes.
func NewCutResult(item PlanItem) CutResult {
	return CutResult{
		OutputPath:        item.OutputPath,
		ChapterIndex:      item.ChapterIndex,
		ChapterTitle:      item.ChapterTitle,
		StartS:            item.StartS,
		EndS:              item.EndS,
		ExpectedDurationS: item.ExpectedDurationS,
	}
}

// OK reports whether the cut succeeded (including skipped items).
func (r CutResult) OK() bool {
	return r.Status == CutOK
}

// DurationError returns |expected - obtained|, or NaN when no duration was measured.
func (r CutResult) DurationError() float64 {
	if r.ObtainedDurationS == nil {
		return math.NaN()
	}
	return math.Abs(r.ExpectedDurationS - *r.ObtainedDurationS)
}

// SliceStatus is the outcome of slicing subtitles for one chapter.
type SliceStatus string

const (
	SliceOK    SliceStatus = "OK"
	SliceEmpty SliceStatus = "EMPTY"
	SliceError SliceStatus = "ERROR"
)

// SubtitleSliceResult records the per-chapter subtitle outcome.
type SubtitleSliceResult struct {
	OutputPath    string
	ChapterIndex  int
	ChapterTitle  string
	StartS        float64
	EndS          float64
	EntryCount    int
	FilteredCount int
	Status        SliceStatus
	Message       string
}

// WithinTolerance reports whether obtained is no further than tolerance from
// expected. Both the existing-output check and the fresh-cut check use it.
func WithinTolerance(expected, obtained, tolerance float64) bool {
	if math.IsNaN(obtained) {
		return false
	}
	return math.Abs(expected-obtained) <= tolerance
}
