package chapters

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalid marks every constructor rejection in this package.
var ErrInvalid = errors.New("invalid chapter data")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Chapter is one named half-open interval [StartS, EndS) of the source timeline.
type Chapter struct {
	Index  int
	Title  string
	StartS float64
	EndS   float64
}

// NewChapter validates and builds a Chapter.
func NewChapter(index int, title string, startS, endS float64) (Chapter, error) {
	if index < 1 {
		return Chapter{}, invalidf("chapter index %d must be positive", index)
	}
	if !finite(startS) || !finite(endS) {
		return Chapter{}, invalidf("chapter %d has non-finite bounds", index)
	}
	if startS < 0 {
		return Chapter{}, invalidf("chapter %d start %.3fs must not be negative", index, startS)
	}
	if endS <= startS {
		return Chapter{}, invalidf("chapter %d end %.3fs must be greater than start %.3fs", index, endS, startS)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("Chapter %d", index)
	}
	return Chapter{Index: index, Title: title, StartS: startS, EndS: endS}, nil
}

// DurationS returns the chapter length in seconds.
func (c Chapter) DurationS() float64 {
	return c.EndS - c.StartS
}

// Timeline describes a source recording and its ordered chapters.
type Timeline struct {
	ID        string
	Title     string
	URL       string
	DurationS float64
	Chapters  []Chapter
}

// NewTimeline validates metadata and chapters. Chapters are sorted by start
// and must not overlap; at least one chapter is required.
func NewTimeline(id, title string, durationS float64, chapters []Chapter) (Timeline, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Timeline{}, invalidf("timeline id must be set")
	}
	if !finite(durationS) || durationS <= 0 {
		return Timeline{}, invalidf("timeline %s duration %.3fs must be positive", id, durationS)
	}
	if len(chapters) == 0 {
		return Timeline{}, invalidf("timeline %s has no chapters", id)
	}

	sorted := make([]Chapter, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartS < sorted[j].StartS })
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].EndS > sorted[i+1].StartS {
			return Timeline{}, invalidf("chapters %d and %d overlap", sorted[i].Index, sorted[i+1].Index)
		}
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = id
	}
	return Timeline{ID: id, Title: title, DurationS: durationS, Chapters: sorted}, nil
}

// WholeVideo builds a timeline holding a single chapter spanning the whole
// recording. Providers use it when the source exposes no chapters.
func WholeVideo(id, title string, durationS float64) (Timeline, error) {
	chapter, err := NewChapter(1, title, 0, durationS)
	if err != nil {
		return Timeline{}, err
	}
	return NewTimeline(id, title, durationS, []Chapter{chapter})
}

// WithURL returns a copy of the timeline carrying the source URL.
func (t Timeline) WithURL(url string) Timeline {
	t.URL = strings.TrimSpace(url)
	return t
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
