package chapters

import (
	"math"
	"strings"
)

// DurationEpsilon is the slack allowed between ExpectedDurationS and the
// chapter bounds it was derived from.
const DurationEpsilon = 0.001

// PlanItem is one chapter's fully resolved cut specification.
type PlanItem struct {
	SourceID          string
	ChapterIndex      int
	ChapterTitle      string
	StartS            float64
	EndS              float64
	ExpectedDurationS float64
	OutputPath        string
}

// NewPlanItem builds a PlanItem for chapter, deriving the expected duration
// from the chapter bounds.
func NewPlanItem(sourceID string, chapter Chapter, outputPath string) (PlanItem, error) {
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return PlanItem{}, invalidf("chapter %d has no output path", chapter.Index)
	}
	expected := chapter.EndS - chapter.StartS
	if expected <= 0 {
		return PlanItem{}, invalidf("chapter %d duration %.3fs must be positive", chapter.Index, expected)
	}
	item := PlanItem{
		SourceID:          sourceID,
		ChapterIndex:      chapter.Index,
		ChapterTitle:      chapter.Title,
		StartS:            chapter.StartS,
		EndS:              chapter.EndS,
		ExpectedDurationS: expected,
		OutputPath:        outputPath,
	}
	if math.Abs(item.ExpectedDurationS-(item.EndS-item.StartS)) > DurationEpsilon {
		return PlanItem{}, invalidf("chapter %d expected duration drifted from bounds", chapter.Index)
	}
	return item, nil
}

// Chapter returns the chapter the item was built from.
func (p PlanItem) Chapter() Chapter {
	return Chapter{Index: p.ChapterIndex, Title: p.ChapterTitle, StartS: p.StartS, EndS: p.EndS}
}
