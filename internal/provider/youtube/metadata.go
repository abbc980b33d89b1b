package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/logging"
	"chaptersplit/internal/services"
)

type videoInfo struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Duration float64       `json:"duration"`
	Chapters []chapterInfo `json:"chapters"`
}

type chapterInfo struct {
	Title     string   `json:"title"`
	StartTime float64  `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
}

// Timeline fetches video metadata and converts its chapters. A video without
// chapters yields a single chapter spanning the whole recording.
func (c *Client) Timeline(ctx context.Context, ref string) (chapters.Timeline, error) {
	if _, err := VideoID(ref); err != nil {
		return chapters.Timeline{}, err
	}
	stdout, err := c.run(ctx, c.metadataTimeout, []string{"--dump-json", "--no-download", "--no-warnings", ref})
	if err != nil {
		return chapters.Timeline{}, fmt.Errorf("fetch metadata: %w", err)
	}

	var info videoInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		return chapters.Timeline{}, services.Wrap(services.ErrExternalTool, "youtube", "metadata", "decode yt-dlp json", err)
	}
	timeline, err := convertInfo(info)
	if err != nil {
		return chapters.Timeline{}, err
	}
	c.logger.Info("metadata fetched",
		logging.String("video_id", timeline.ID),
		logging.String("title", timeline.Title),
		logging.Int("chapters", len(timeline.Chapters)),
		logging.Seconds("duration_s", timeline.DurationS),
	)
	return timeline.WithURL(ref), nil
}

func convertInfo(info videoInfo) (chapters.Timeline, error) {
	id := strings.TrimSpace(info.ID)
	if id == "" {
		return chapters.Timeline{}, fmt.Errorf("%w: metadata has no video id", services.ErrValidation)
	}
	if info.Duration <= 0 {
		return chapters.Timeline{}, fmt.Errorf("%w: video %s has no duration", services.ErrValidation, id)
	}
	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = "Unknown title"
	}

	var list []chapters.Chapter
	for _, raw := range info.Chapters {
		end := raw.StartTime
		if raw.EndTime != nil {
			end = *raw.EndTime
		}
		if end <= raw.StartTime {
			continue
		}
		index := len(list) + 1
		chapter, err := chapters.NewChapter(index, raw.Title, raw.StartTime, end)
		if err != nil {
			return chapters.Timeline{}, fmt.Errorf("%w: %w", services.ErrValidation, err)
		}
		list = append(list, chapter)
	}
	if len(list) == 0 {
		timeline, err := chapters.WholeVideo(id, title, info.Duration)
		if err != nil {
			return chapters.Timeline{}, fmt.Errorf("%w: %w", services.ErrValidation, err)
		}
		return timeline, nil
	}
	timeline, err := chapters.NewTimeline(id, title, info.Duration, list)
	if err != nil {
		return chapters.Timeline{}, fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	return timeline, nil
}
