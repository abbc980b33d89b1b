package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chaptersplit/internal/logging"
)

// Kind classifies a work directory entry.
type Kind string

const (
	KindVideo    Kind = "video"
	KindSubtitle Kind = "subtitle"
	KindPartial  Kind = "partial"
	KindDir      Kind = "dir"
	KindOther    Kind = "other"
)

// Entry describes one item in the work directory.
type Entry struct {
	Name    string
	Path    string
	Kind    Kind
	ModTime time.Time
	Size    int64
}

// CleanResult contains the outcome of a cleanup.
type CleanResult struct {
	Removed []Entry
	Kept    int
	Errors  []CleanupError
}

// Reclaimed sums the size of removed entries.
func (r CleanResult) Reclaimed() int64 {
	var total int64
	for _, entry := range r.Removed {
		total += entry.Size
	}
	return total
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanOptions controls CleanStale.
type CleanOptions struct {
	MaxAge time.Duration
	DryRun bool
	// Keep preserves matching entries regardless of age.
	Keep func(Entry) bool
	Now  func() time.Time
}

// List returns the work directory entries, oldest first. A missing directory
// yields no entries.
func List(workDir string) ([]Entry, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, nil
	}
	items, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		info, err := item.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(workDir, item.Name())
		entry := Entry{
			Name:    item.Name(),
			Path:    path,
			Kind:    classify(item.Name(), item.IsDir()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}
		if item.IsDir() {
			entry.Size, _ = dirSize(path)
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ModTime.Before(entries[j].ModTime) })
	return entries, nil
}

// CleanStale removes entries older than opts.MaxAge from workDir.
func CleanStale(ctx context.Context, workDir string, opts CleanOptions, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	if logger == nil {
		logger = logging.NewNop()
	}
	entries, err := List(workDir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: err})
		return result
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cutoff := now().Add(-opts.MaxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Path, Error: ctx.Err()})
			return result
		}
		if !entry.ModTime.Before(cutoff) || (opts.Keep != nil && opts.Keep(entry)) {
			result.Kept++
			continue
		}
		if opts.DryRun {
			result.Removed = append(result.Removed, entry)
			continue
		}
		if err := os.RemoveAll(entry.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Path, Error: err})
			logger.Warn("failed to remove stale work file",
				logging.String("path", entry.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "work_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, entry)
		logger.Info("removed stale work file",
			logging.String("path", entry.Path),
			logging.String("kind", string(entry.Kind)),
			logging.Duration("age", now().Sub(entry.ModTime)),
			logging.String(logging.FieldEventType, "work_cleanup"),
		)
	}
	return result
}

func classify(name string, isDir bool) Kind {
	if isDir {
		return KindDir
	}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".part"), strings.HasSuffix(lower, ".ytdl"), strings.Contains(lower, ".part-frag"):
		return KindPartial
	}
	switch filepath.Ext(lower) {
	case ".mp4", ".mkv", ".webm", ".mov", ".m4a":
		return KindVideo
	case ".srt", ".vtt", ".ttml", ".srv3", ".json3":
		return KindSubtitle
	default:
		return KindOther
	}
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
