package chapters

import "math"

// SubtitleEntry is one timed cue. Every transform returns a new entry.
type SubtitleEntry struct {
	Index   int
	StartS  float64
	EndS    float64
	Content string
}

// NewSubtitleEntry validates and builds a cue.
func NewSubtitleEntry(index int, startS, endS float64, content string) (SubtitleEntry, error) {
	if index < 1 {
		return SubtitleEntry{}, invalidf("subtitle index %d must be positive", index)
	}
	if !finite(startS) || !finite(endS) {
		return SubtitleEntry{}, invalidf("subtitle %d has non-finite bounds", index)
	}
	if startS < 0 {
		return SubtitleEntry{}, invalidf("subtitle %d start %.3fs must not be negative", index, startS)
	}
	if endS <= startS {
		return SubtitleEntry{}, invalidf("subtitle %d end %.3fs must be greater than start %.3fs", index, endS, startS)
	}
	return SubtitleEntry{Index: index, StartS: startS, EndS: endS, Content: content}, nil
}

// DurationS returns the cue length in seconds.
func (e SubtitleEntry) DurationS() float64 {
	return e.EndS - e.StartS
}

// Shift moves the cue by offset seconds. The start is clamped at zero and the
// end is kept at least minGap after the start.
func (e SubtitleEntry) Shift(offset, minGap float64) SubtitleEntry {
	start := math.Max(0, e.StartS+offset)
	end := math.Max(start+minGap, e.EndS+offset)
	return SubtitleEntry{Index: e.Index, StartS: start, EndS: end, Content: e.Content}
}

// Overlaps reports whether the cue intersects [start, end). Cues that only
// touch a boundary do not overlap.
func (e SubtitleEntry) Overlaps(start, end float64) bool {
	return e.EndS > start && e.StartS < end
}

// Clip restricts the cue to [start, end].
func (e SubtitleEntry) Clip(start, end float64) SubtitleEntry {
	return SubtitleEntry{
		Index:   e.Index,
		StartS:  math.Max(e.StartS, start),
		EndS:    math.Min(e.EndS, end),
		Content: e.Content,
	}
}

// Rebase shifts the cue so origin becomes zero.
func (e SubtitleEntry) Rebase(origin float64) SubtitleEntry {
	return SubtitleEntry{Index: e.Index, StartS: e.StartS - origin, EndS: e.EndS - origin, Content: e.Content}
}

// WithEnd returns a copy ending at end.
func (e SubtitleEntry) WithEnd(end float64) SubtitleEntry {
	return SubtitleEntry{Index: e.Index, StartS: e.StartS, EndS: end, Content: e.Content}
}

// WithIndex returns a copy carrying index.
func (e SubtitleEntry) WithIndex(index int) SubtitleEntry {
	return SubtitleEntry{Index: index, StartS: e.StartS, EndS: e.EndS, Content: e.Content}
}
