package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

// DurationProber measures media durations.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Provider resolves local media files into timelines.
type Provider struct {
	// SheetPath overrides the sibling chapter sheet lookup when set.
	SheetPath string

	prober DurationProber
	logger *slog.Logger
}

// New constructs a Provider. sheetPath may be empty.
func New(prober DurationProber, sheetPath string, logger *slog.Logger) *Provider {
	return &Provider{
		SheetPath: strings.TrimSpace(sheetPath),
		prober:    prober,
		logger:    logging.NewComponentLogger(logger, "local"),
	}
}

// SiblingSheets returns the chapter sheet names checked for mediaPath.
func SiblingSheets(mediaPath string) []string {
	stem := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	return []string{stem + ".chapters.yaml", stem + ".chapters.yml"}
}

// VideoID derives a stable 11 character identifier from the file name so
// repeated runs on the same file land in the same output directory.
func VideoID(mediaPath string) string {
	sum := sha256.Sum256([]byte(filepath.Base(mediaPath)))
	return hex.EncodeToString(sum[:])[:11]
}

// Timeline probes ref and builds its chapters from the chapter sheet, or a
// single whole-recording chapter when no sheet exists.
func (p *Provider) Timeline(ctx context.Context, ref string) (chapters.Timeline, error) {
	info, err := os.Stat(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return chapters.Timeline{}, services.Wrap(services.ErrNotFound, "local", "source", ref, err)
		}
		return chapters.Timeline{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return chapters.Timeline{}, fmt.Errorf("%w: source %s is a directory", services.ErrValidation, ref)
	}

	duration, err := p.prober.Duration(ctx, ref)
	if err != nil {
		return chapters.Timeline{}, fmt.Errorf("probe source duration: %w", err)
	}

	sheetPath, sheet, err := p.loadSheet(ref)
	if err != nil {
		return chapters.Timeline{}, err
	}

	id := VideoID(ref)
	title := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	if sheetPath == "" {
		p.logger.Info("no chapter sheet; using whole recording", logging.String("source", ref))
		timeline, err := chapters.WholeVideo(id, title, duration)
		if err != nil {
			return chapters.Timeline{}, fmt.Errorf("%w: %w", services.ErrValidation, err)
		}
		return timeline.WithURL(ref), nil
	}

	if sheet.ID != "" {
		id = sheet.ID
	}
	if sheet.Title != "" {
		title = sheet.Title
	}
	list, err := sheet.Build(duration)
	if err != nil {
		return chapters.Timeline{}, err
	}
	timeline, err := chapters.NewTimeline(id, title, duration, list)
	if err != nil {
		return chapters.Timeline{}, fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	p.logger.Info("chapter sheet loaded",
		logging.String("sheet", sheetPath),
		logging.Int("chapters", len(timeline.Chapters)),
	)
	return timeline.WithURL(ref), nil
}

// Acquire returns the local file itself; nothing needs downloading.
func (p *Provider) Acquire(_ context.Context, timeline chapters.Timeline, _ bool) (string, error) {
	if timeline.URL == "" {
		return "", fmt.Errorf("%w: timeline %s has no source path", services.ErrValidation, timeline.ID)
	}
	return timeline.URL, nil
}

func (p *Provider) loadSheet(mediaPath string) (string, Sheet, error) {
	if p.SheetPath != "" {
		sheet, err := LoadSheet(p.SheetPath)
		return p.SheetPath, sheet, err
	}
	for _, candidate := range SiblingSheets(mediaPath) {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		sheet, err := LoadSheet(candidate)
		return candidate, sheet, err
	}
	return "", Sheet{}, nil
}
