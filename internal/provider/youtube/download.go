package youtube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/fileutil"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

// videoExtensions are the containers yt-dlp may leave behind after merging.
var videoExtensions = []string{"mp4", "mkv", "webm"}

// Acquire returns a local media file for timeline, downloading it when needed.
func (c *Client) Acquire(ctx context.Context, timeline chapters.Timeline, force bool) (string, error) {
	return c.DownloadVideo(ctx, timeline.URL, force)
}

// ExistingVideo returns a non-empty "<work>/<id>.<ext>" file, or "".
func (c *Client) ExistingVideo(videoID string) string {
	exts := append([]string{c.videoFormat}, videoExtensions...)
	for _, ext := range slices.Compact(exts) {
		path := filepath.Join(c.workDir, videoID+"."+ext)
		if fileutil.NonEmptyFile(path) {
			return path
		}
	}
	return ""
}

// DownloadVideo downloads the best stream not taller than the configured
// quality into the work directory and returns the merged file. An existing
// download is reused unless force is set.
func (c *Client) DownloadVideo(ctx context.Context, url string, force bool) (string, error) {
	id, err := VideoID(url)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "youtube", "download", "create work directory", err)
	}
	if !force {
		if existing := c.ExistingVideo(id); existing != "" {
			c.logger.Info("reusing downloaded video", logging.String("path", existing))
			return existing, nil
		}
	}

	template := filepath.Join(c.workDir, id+".%(ext)s")
	var strategies []Strategy
	for _, format := range c.formatSelectors() {
		args := []string{
			"--format", format,
			"--output", template,
			"--merge-output-format", c.videoFormat,
			"--no-warnings",
			url,
		}
		strategies = append(strategies, Strategy{
			Name: "format:" + format,
			Run: func(ctx context.Context) (Outcome, error) {
				stdout, err := c.run(ctx, c.downloadTimeout, args)
				return Outcome{Stdout: stdout}, err
			},
		})
	}

	outcome, err := RunChain(ctx, "yt-dlp download", strategies)
	if err != nil {
		return "", err
	}
	path := c.ExistingVideo(id)
	if path == "" {
		return "", fmt.Errorf("%w: downloaded file for %s not found in %s", services.ErrNotFound, id, c.workDir)
	}
	c.logger.Info("video downloaded",
		logging.String("path", path),
		logging.String("strategy", outcome.Strategy),
	)
	return path, nil
}

// formatSelectors lists yt-dlp format expressions from most to least specific.
func (c *Client) formatSelectors() []string {
	h := c.maxHeight
	selectors := []string{
		fmt.Sprintf("bv*[height<=%d][vcodec^=avc1]+ba/best", h),
		fmt.Sprintf("bv*[height<=%d]+ba/best", h),
		fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", h),
	}
	if c.format != "" && !slices.Contains(selectors, c.format) {
		selectors = append(selectors, c.format)
	}
	return selectors
}
