package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

// catchAllLanguages and catchAllFormats drive the last subtitle attempt.
const (
	catchAllLanguages = "en,fr,es,de,it"
	catchAllFormats   = "srt/vtt/ttml/best"
)

var (
	listLanguagePattern = regexp.MustCompile(`^([a-zA-Z-]{2,10})\b`)
	knownSubFormats     = []string{"srt", "vtt", "ttml"}
	parsableSubFormats  = []string{"srt", "vtt"}
)

// ListSubtitles returns the subtitle languages yt-dlp reports for url, mapped
// to their srt/vtt/ttml formats. Regional codes ("en-US") are also reported
// under their primary tag.
func (c *Client) ListSubtitles(ctx context.Context, url string) (map[string][]string, error) {
	if _, err := VideoID(url); err != nil {
		return nil, err
	}
	base := []string{"--list-subs", "--no-warnings"}
	outcome, err := RunChain(ctx, "yt-dlp list-subs", c.resilientStrategies(base, url, listSubsTimeout))
	if err != nil {
		return nil, err
	}
	return parseListSubs(string(outcome.Stdout)), nil
}

func parseListSubs(output string) map[string][]string {
	available := make(map[string][]string)
	inSection := false
	for _, line := range strings.Split(output, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		if strings.Contains(lower, "available subtitles") || strings.Contains(lower, "available automatic captions") {
			inSection = true
			continue
		}
		if !inSection || strings.HasPrefix(s, "Language") || strings.HasPrefix(s, "[") || strings.HasPrefix(s, "=") {
			continue
		}
		match := listLanguagePattern.FindStringSubmatch(s)
		if match == nil {
			continue
		}
		tokens := strings.FieldsFunc(lower, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
		var formats []string
		for _, format := range knownSubFormats {
			if slices.Contains(tokens[1:], format) {
				formats = append(formats, format)
			}
		}
		if len(formats) == 0 {
			continue
		}
		code := match[1]
		primary, _, _ := strings.Cut(code, "-")
		available[primary] = mergeFormats(available[primary], formats)
		if code != primary {
			available[code] = mergeFormats(available[code], formats)
		}
	}
	return available
}

func mergeFormats(existing, add []string) []string {
	for _, format := range add {
		if !slices.Contains(existing, format) {
			existing = append(existing, format)
		}
	}
	return existing
}

type subtitleAttempt struct {
	manual   bool
	language string
	format   string
}

func (a subtitleAttempt) label() string {
	kind := "auto"
	if a.manual {
		kind = "manual"
	}
	return fmt.Sprintf("%s %s %s", kind, a.language, a.format)
}

// DownloadSubtitles writes a subtitle file for url into outputDir and returns
// its path. Language and format come from the listing when available; each
// attempt (manual/auto, regional variant, then a catch-all) runs the full
// strategy chain.
func (c *Client) DownloadSubtitles(ctx context.Context, url, outputDir string) (string, error) {
	id, err := VideoID(url)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create subtitle directory: %w", err)
	}

	available, err := c.ListSubtitles(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.logger.Debug("subtitle listing failed; guessing language", logging.Error(err))
		available = nil
	}
	language, format := selectSubtitle(available, c.languages, c.formatPriority)

	template := filepath.Join(outputDir, id+".%(ext)s")
	chain := &ChainError{Op: "yt-dlp subtitles"}
	for _, attempt := range c.subtitleAttempts(available, language, format) {
		args := []string{
			"--skip-download",
			"--sub-langs", attempt.language,
			"--sub-format", attempt.format,
			"--output", template,
			"--no-warnings",
		}
		if attempt.manual {
			args = append(args, "--write-subs")
		} else {
			args = append(args, "--write-auto-subs")
		}

		outcome, err := RunChain(ctx, "yt-dlp subtitles", c.resilientStrategies(args, url, subtitleTimeout))
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return "", err
			}
			var ce *ChainError
			if errors.As(err, &ce) {
				for _, failed := range ce.Attempts {
					chain.Attempts = append(chain.Attempts, AttemptError{Strategy: attempt.label() + " " + failed.Strategy, Err: failed.Err})
				}
				continue
			}
			return "", err
		}
		if path := resolveSubtitle(outputDir, id, language); path != "" {
			c.logger.Info("subtitles downloaded",
				logging.String("path", path),
				logging.String("attempt", attempt.label()),
				logging.String("strategy", outcome.Strategy),
			)
			return path, nil
		}
		chain.Attempts = append(chain.Attempts, AttemptError{
			Strategy: attempt.label() + " " + outcome.Strategy,
			Err:      fmt.Errorf("%w: no subtitle file written", services.ErrNotFound),
		})
	}
	return "", chain
}

// selectSubtitle picks the first configured language, and within it the first
// preferred format, that the listing offers. Without a match it falls back to
// the first preference of each.
func selectSubtitle(available map[string][]string, languages, formats []string) (string, string) {
	for _, lang := range languages {
		offered, ok := available[lang]
		if !ok {
			continue
		}
		for _, format := range formats {
			if slices.Contains(offered, format) {
				return lang, format
			}
		}
	}
	return languages[0], formats[0]
}

func (c *Client) subtitleAttempts(available map[string][]string, language, format string) []subtitleAttempt {
	regional := language
	keys := make([]string, 0, len(available))
	for key := range available {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasPrefix(key, language+"-") {
			regional = key
			break
		}
	}

	attempts := []subtitleAttempt{{manual: c.preferManual, language: language, format: format}}
	if regional != language {
		attempts = append(attempts, subtitleAttempt{manual: c.preferManual, language: regional, format: format})
	}
	if c.fallbackToAuto {
		attempts = append(attempts, subtitleAttempt{manual: !c.preferManual, language: language, format: format})
		if regional != language {
			attempts = append(attempts, subtitleAttempt{manual: !c.preferManual, language: regional, format: format})
		}
	}
	return append(attempts, subtitleAttempt{manual: c.preferManual, language: catchAllLanguages, format: catchAllFormats})
}

// resolveSubtitle finds the parsable subtitle file yt-dlp wrote for id,
// preferring the requested language.
func resolveSubtitle(dir, id, language string) string {
	for _, format := range parsableSubFormats {
		path := filepath.Join(dir, id+"."+language+"."+format)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, id+".") {
			continue
		}
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."); slices.Contains(parsableSubFormats, ext) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	for _, match := range matches {
		if strings.Contains(filepath.Base(match), "."+language) {
			return match
		}
	}
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
