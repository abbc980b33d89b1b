package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"chaptersplit/internal/config"
	"chaptersplit/internal/fileutil"
	"chaptersplit/internal/language"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

// Downloader fetches a subtitle file for a remote video into outputDir and
// returns its path.
type Downloader interface {
	DownloadSubtitles(ctx context.Context, url, outputDir string) (string, error)
}

// Locator finds the subtitle track for a video.
type Locator struct {
	ExternalPath   string
	WorkDir        string
	SearchDirs     []string
	Languages      []string
	FormatPriority []string
	AutoDownload   bool

	downloader Downloader
	logger     *slog.Logger
}

// NewLocator builds a Locator from configuration. downloader may be nil.
func NewLocator(cfg *config.Config, downloader Downloader, logger *slog.Logger) *Locator {
	formats := cfg.Subtitles.FormatPriority
	if len(formats) == 0 {
		formats = []string{FormatSRT, FormatVTT}
	}
	return &Locator{
		ExternalPath:   cfg.Subtitles.ExternalPath,
		WorkDir:        cfg.Paths.WorkDir,
		SearchDirs:     cfg.Subtitles.SearchDirs,
		Languages:      cfg.Subtitles.Languages,
		FormatPriority: formats,
		AutoDownload:   cfg.Subtitles.AutoDownload,
		downloader:     downloader,
		logger:         logging.NewComponentLogger(logger, "subtitles"),
	}
}

// Find returns the first usable track, trying the external path, then local
// candidates, then a download when enabled. A missing track is reported as
// services.ErrNotFound.
func (l *Locator) Find(ctx context.Context, videoID, url string) (Track, error) {
	logger := logging.WithContext(ctx, l.logger)

	if l.ExternalPath != "" {
		track, err := ParseFile(l.ExternalPath)
		if err != nil {
			return Track{}, fmt.Errorf("external subtitles %s: %w", l.ExternalPath, err)
		}
		logger.Info("using external subtitles", logging.String("path", l.ExternalPath))
		return track, nil
	}

	for _, candidate := range l.Candidates(videoID) {
		track, err := ParseFile(candidate)
		if err != nil {
			logger.Debug("skipping unreadable subtitle candidate",
				logging.String("path", candidate),
				logging.Error(err),
			)
			continue
		}
		logger.Info("using local subtitles", logging.String("path", candidate))
		return track, nil
	}

	if !l.AutoDownload || l.downloader == nil || strings.TrimSpace(url) == "" {
		return Track{}, services.Wrap(services.ErrNotFound, "subtitles", "locate", "no subtitle file for "+videoID, nil)
	}

	path, err := l.downloader.DownloadSubtitles(ctx, url, l.WorkDir)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Track{}, err
		}
		return Track{}, services.Wrap(services.ErrNotFound, "subtitles", "download", "no subtitles available for "+videoID, err)
	}
	track, err := ParseFile(path)
	if err != nil {
		return Track{}, fmt.Errorf("downloaded subtitles %s: %w", filepath.Base(path), err)
	}
	logger.Info("using downloaded subtitles", logging.String("path", path))
	return track, nil
}

// Candidates lists existing, non-empty subtitle files for videoID in search
// order: exact names first ("<id>.<ext>", then "<id>.<lang>.<ext>" per
// configured language), then any "*-<id>.*" or "<id>.*" match. The work
// directory is searched before SearchDirs.
func (l *Locator) Candidates(videoID string) []string {
	if strings.TrimSpace(videoID) == "" {
		return nil
	}
	dirs := append([]string{l.WorkDir}, l.SearchDirs...)

	var candidates []string
	seen := make(map[string]struct{})
	add := func(path string) {
		clean := filepath.Clean(path)
		if _, ok := seen[clean]; ok {
			return
		}
		seen[clean] = struct{}{}
		if fileutil.NonEmptyFile(clean) {
			candidates = append(candidates, clean)
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, format := range l.FormatPriority {
			add(filepath.Join(dir, videoID+"."+format))
			for _, lang := range l.languages() {
				add(filepath.Join(dir, videoID+"."+lang+"."+format))
			}
		}
		for _, path := range l.globMatches(dir, videoID) {
			add(path)
		}
	}
	return candidates
}

func (l *Locator) languages() []string {
	langs := slices.Clone(l.Languages)
	if !slices.Contains(langs, "en") {
		langs = append(langs, "en")
	}
	return langs
}

// globMatches returns "*-<id>.*" and "<id>.*" subtitle files in dir, ordered by
// format priority and then by whether the name carries a preferred language.
func (l *Locator) globMatches(dir, videoID string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasPrefix(name, videoID+".") || strings.Contains(name, "-"+videoID+".")) {
			continue
		}
		if _, err := DetectFormat(name); err != nil {
			continue
		}
		matches = append(matches, filepath.Join(dir, name))
	}
	slices.SortStableFunc(matches, func(a, b string) int {
		if d := l.formatRank(a) - l.formatRank(b); d != 0 {
			return d
		}
		return l.languageRank(a) - l.languageRank(b)
	})
	return matches
}

func (l *Locator) formatRank(path string) int {
	format, _ := DetectFormat(path)
	if i := slices.Index(l.FormatPriority, format); i >= 0 {
		return i
	}
	return len(l.FormatPriority)
}

func (l *Locator) languageRank(path string) int {
	lang := LanguageFromFilename(path)
	langs := l.languages()
	for i, want := range langs {
		if language.Matches(lang, want) {
			return i
		}
	}
	return len(langs)
}
