package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/timecode"
	"chaptersplit/internal/workflow"
)

func clock(seconds float64) string {
	value, err := timecode.Format(seconds, true)
	if err != nil {
		return "-"
	}
	return value
}

func planTable(report workflow.Report) string {
	rows := make([][]string, 0, len(report.Plan))
	total := 0.0
	for _, item := range report.Plan {
		total += item.ExpectedDurationS
		rows = append(rows, []string{
			strconv.Itoa(item.ChapterIndex),
			item.ChapterTitle,
			clock(item.StartS),
			clock(item.EndS),
			timecode.FormatDuration(item.ExpectedDurationS),
			filepath.Base(item.OutputPath),
		})
	}
	return renderTable(tableSpec{
		Title:   fmt.Sprintf("%s [%s]", report.Timeline.Title, report.Timeline.ID),
		Headers: []string{"#", "Title", "Start", "End", "Duration", "Output"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		Footer:  []string{"", fmt.Sprintf("%d chapters", len(report.Plan)), "", "", timecode.FormatDuration(total), ""},
	})
}

func resultsTable(results []chapters.CutResult) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := string(result.Status)
		if result.Skipped {
			status = "SKIP"
		}
		obtained := "-"
		if result.ObtainedDurationS != nil {
			obtained = fmt.Sprintf("%.2fs", *result.ObtainedDurationS)
		}
		delta := "-"
		if d := result.DurationError(); !math.IsNaN(d) {
			delta = fmt.Sprintf("%.2fs", d)
		}
		rows = append(rows, []string{
			strconv.Itoa(result.ChapterIndex),
			result.ChapterTitle,
			status,
			fmt.Sprintf("%.2fs", result.ExpectedDurationS),
			obtained,
			delta,
			result.Message,
		})
	}
	return renderTable(tableSpec{
		Title:   "Results",
		Headers: []string{"#", "Title", "Status", "Expected", "Obtained", "Delta", "Message"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	})
}

func statsTable(stats chapters.ProcessingStats, elapsed time.Duration) string {
	rows := [][]string{
		{"Chapters", strconv.Itoa(stats.TotalChapters)},
		{"Processed", strconv.Itoa(stats.Processed)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
		{"Failed", strconv.Itoa(stats.Failed)},
		{"Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate())},
		{"Video produced", timecode.FormatDuration(stats.TotalDurationS)},
		{"Elapsed", elapsed.Round(time.Second).String()},
	}
	return renderTable(tableSpec{
		Title:   "Summary",
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignLeft, alignRight},
	})
}

type planDocument struct {
	VideoID          string     `toml:"video_id"`
	Title            string     `toml:"title"`
	Source           string     `toml:"source"`
	DurationSeconds  float64    `toml:"duration_seconds"`
	OutputDir        string     `toml:"output_dir"`
	EstimatedSeconds float64    `toml:"estimated_seconds"`
	Items            []planItem `toml:"items"`
}

type planItem struct {
	Index           int     `toml:"index"`
	Title           string  `toml:"title"`
	Start           string  `toml:"start"`
	End             string  `toml:"end"`
	StartSeconds    float64 `toml:"start_seconds"`
	EndSeconds      float64 `toml:"end_seconds"`
	DurationSeconds float64 `toml:"duration_seconds"`
	Output          string  `toml:"output"`
}

// planTOML renders the plan as a TOML document.
func planTOML(report workflow.Report) (string, error) {
	doc := planDocument{
		VideoID:          report.Timeline.ID,
		Title:            report.Timeline.Title,
		Source:           report.Timeline.URL,
		DurationSeconds:  report.Timeline.DurationS,
		OutputDir:        report.VideoDir,
		EstimatedSeconds: math.Round(report.Estimate.Seconds()*10) / 10,
		Items:            make([]planItem, 0, len(report.Plan)),
	}
	for _, item := range report.Plan {
		doc.Items = append(doc.Items, planItem{
			Index:           item.ChapterIndex,
			Title:           item.ChapterTitle,
			Start:           clock(item.StartS),
			End:             clock(item.EndS),
			StartSeconds:    item.StartS,
			EndSeconds:      item.EndS,
			DurationSeconds: item.ExpectedDurationS,
			Output:          item.OutputPath,
		})
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}
	return string(data), nil
}
