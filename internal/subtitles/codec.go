package subtitles

import (
	"errors"
	"fmt"
	"html"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/language"
	"chaptersplit/internal/services"
)

// Supported subtitle formats.
const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
)

// ErrUnsupportedFormat is returned for files that are neither SRT nor WebVTT.
var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// Track is a parsed subtitle file.
type Track struct {
	Path     string
	Language string
	Format   string
	Entries  []chapters.SubtitleEntry
}

// EndS returns the latest cue end, or 0 for an empty track.
func (t Track) EndS() float64 {
	var last float64
	for _, entry := range t.Entries {
		last = math.Max(last, entry.EndS)
	}
	return last
}

var (
	timingPattern   = regexp.MustCompile(`^\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s*-->\s*((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	languagePattern = regexp.MustCompile(`^[A-Za-z]{2,3}(?:-[A-Za-z0-9]{2,4})?$`)
)

// ParseFile reads an SRT or WebVTT file. The format comes from the extension
// and the language from an "<id>.<lang>.<ext>" file name.
func ParseFile(path string) (Track, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Track{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Track{}, services.Wrap(services.ErrNotFound, "subtitles", "parse", "subtitle file missing", err)
		}
		return Track{}, fmt.Errorf("read subtitles: %w", err)
	}
	entries, err := Parse(string(data), format)
	if err != nil {
		return Track{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return Track{
		Path:     path,
		Language: LanguageFromFilename(path),
		Format:   format,
		Entries:  entries,
	}, nil
}

// DetectFormat maps a file extension to FormatSRT or FormatVTT.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, nil
	case ".vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// LanguageFromFilename returns the normalized language tag from names such as
// "dQw4w9WgXcQ.en.srt" or "talk.pt-BR.vtt", or "" when none is present.
func LanguageFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dot := strings.LastIndex(stem, ".")
	if dot < 0 {
		return ""
	}
	candidate := stem[dot+1:]
	if !languagePattern.MatchString(candidate) {
		return ""
	}
	return language.Normalize(candidate)
}

// Parse decodes content in the given format. Cues whose text is empty after
// cleaning, or whose timing is invalid, are skipped. Surviving cues are
// numbered from 1 in file order.
func Parse(content, format string) ([]chapters.SubtitleEntry, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	switch format {
	case FormatSRT:
	case FormatVTT:
		trimmed := strings.TrimLeft(content, " \t\n")
		if !strings.HasPrefix(trimmed, "WEBVTT") {
			return nil, fmt.Errorf("missing WEBVTT header")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	var entries []chapters.SubtitleEntry
	for _, block := range strings.Split(content, "\n\n") {
		entry, ok := parseBlock(block, len(entries)+1)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// parseBlock decodes one blank-line separated cue. Index lines, VTT cue
// identifiers, and the VTT header/NOTE/STYLE blocks fall out because they lack
// a timing line.
func parseBlock(block string, index int) (chapters.SubtitleEntry, bool) {
	lines := strings.Split(strings.Trim(block, "\n"), "\n")
	for i, line := range lines {
		match := timingPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		start, err := ParseTimestamp(match[1])
		if err != nil {
			return chapters.SubtitleEntry{}, false
		}
		end, err := ParseTimestamp(match[2])
		if err != nil {
			return chapters.SubtitleEntry{}, false
		}
		text := CleanText(strings.Join(lines[i+1:], "\n"))
		if text == "" {
			return chapters.SubtitleEntry{}, false
		}
		entry, err := chapters.NewSubtitleEntry(index, start, end, text)
		if err != nil {
			return chapters.SubtitleEntry{}, false
		}
		return entry, true
	}
	return chapters.SubtitleEntry{}, false
}

// ParseTimestamp converts "HH:MM:SS,mmm", "HH:MM:SS.mmm" or "MM:SS.mmm" into
// seconds. Fractions shorter than three digits are right-padded.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	clock, frac, ok := strings.Cut(value, ".")
	if !ok || frac == "" || len(frac) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(clock, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(parts[0])
	minutes, errM := strconv.Atoi(parts[1])
	seconds, errS := strconv.Atoi(parts[2])
	millis, errMS := strconv.Atoi((frac + "00")[:3])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if minutes >= 60 || seconds >= 60 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(seconds)*1_000 + int64(millis)
	return float64(total) / 1000, nil
}

// CleanText strips markup, decodes entities, and collapses whitespace.
func CleanText(text string) string {
	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// FormatTimestamp renders seconds as "HH:MM:SS,mmm".
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	hours := total / 3_600_000
	total %= 3_600_000
	minutes := total / 60_000
	total %= 60_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, total/1_000, total%1_000)
}

// FormatSRT renders entries as an SRT document using each entry's Index.
func FormatSRT(entries []chapters.SubtitleEntry) string {
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n",
			entry.Index, FormatTimestamp(entry.StartS), FormatTimestamp(entry.EndS), entry.Content)
	}
	return b.String()
}
