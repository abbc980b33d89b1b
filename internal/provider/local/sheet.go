package local

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/services"
	"chaptersplit/internal/timecode"
)

// Sheet is a chapter list for one recording.
//
//	title: Conference talk
//	chapters:
//	  - title: Intro
//	    start: "00:00"
//	  - title: Demo
//	    start: "05:30.5"
//	    end: "12:00"
//
// A bare list of chapters is accepted as well.
type Sheet struct {
	ID       string       `yaml:"id"`
	Title    string       `yaml:"title"`
	Chapters []SheetEntry `yaml:"chapters"`
}

// SheetEntry is one chapter line of a Sheet. End is optional.
type SheetEntry struct {
	Title string    `yaml:"title"`
	Start Timecode  `yaml:"start"`
	End   *Timecode `yaml:"end"`
}

// Timecode is a YAML scalar holding a timecode such as "01:02:03.5" or a
// plain number of seconds below 60.
type Timecode struct {
	Text    string
	Seconds float64
}

// UnmarshalYAML parses the scalar with timecode.Parse.
func (t *Timecode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timecode must be a scalar", node.Line)
	}
	seconds, err := timecode.Parse(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	t.Text = node.Value
	t.Seconds = seconds
	return nil
}

// LoadSheet reads and decodes a chapter sheet.
func LoadSheet(path string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Sheet{}, services.Wrap(services.ErrNotFound, "local", "chapter sheet", path, err)
		}
		return Sheet{}, fmt.Errorf("read chapter sheet: %w", err)
	}
	return ParseSheet(data)
}

// ParseSheet decodes a chapter sheet document.
func ParseSheet(data []byte) (Sheet, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Sheet{}, fmt.Errorf("%w: parse chapter sheet: %w", services.ErrValidation, err)
	}
	if len(root.Content) == 0 {
		return Sheet{}, fmt.Errorf("%w: chapter sheet is empty", services.ErrValidation)
	}

	var sheet Sheet
	doc := root.Content[0]
	var err error
	if doc.Kind == yaml.SequenceNode {
		err = doc.Decode(&sheet.Chapters)
	} else {
		err = doc.Decode(&sheet)
	}
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: decode chapter sheet: %w", services.ErrValidation, err)
	}
	if len(sheet.Chapters) == 0 {
		return Sheet{}, fmt.Errorf("%w: chapter sheet lists no chapters", services.ErrValidation)
	}
	return sheet, nil
}

// Build converts the sheet into chapters for a recording of durationS
// seconds. Entries are ordered by start; a missing end takes the next
// chapter's start, or durationS for the last chapter.
func (s Sheet) Build(durationS float64) ([]chapters.Chapter, error) {
	entries := make([]SheetEntry, len(s.Chapters))
	copy(entries, s.Chapters)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start.Seconds < entries[j].Start.Seconds })

	out := make([]chapters.Chapter, 0, len(entries))
	for i, entry := range entries {
		end := durationS
		switch {
		case entry.End != nil:
			end = entry.End.Seconds
		case i+1 < len(entries):
			end = entries[i+1].Start.Seconds
		}
		chapter, err := chapters.NewChapter(i+1, strings.TrimSpace(entry.Title), entry.Start.Seconds, end)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", services.ErrValidation, err)
		}
		out = append(out, chapter)
	}
	return out, nil
}
