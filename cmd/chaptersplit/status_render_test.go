package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/workflow"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "binary \"ffmpeg\" not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] binary \"ffmpeg\" not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "found ffmpeg", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestHealthLines(t *testing.T) {
	checks := []workflow.StageHealth{
		{Name: "FFmpeg", Ready: false, Detail: "not found"},
		{Name: "FFprobe", Ready: true, Detail: "found ffprobe"},
		{Name: "h264_nvenc", Ready: false, Optional: true, Detail: "not available"},
	}
	lines := healthLines(checks, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] missing: FFmpeg") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[2], "[OK] found ffprobe") {
		t.Fatalf("expected ready detail, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] not available") {
		t.Fatalf("expected optional warning, got %q", lines[3])
	}
}

func TestSubtitleStatusLine(t *testing.T) {
	skipped := subtitleStatusLine(workflow.SubtitleReport{Skipped: true, Reason: "subtitles disabled"}, false)
	if !strings.Contains(skipped, "[INFO] skipped: subtitles disabled") {
		t.Fatalf("unexpected skipped line %q", skipped)
	}

	report := workflow.SubtitleReport{
		Language:   "fr",
		SyncIssues: []string{"last_cue_past_video_end: 45.0s"},
		Results: []chapters.SubtitleSliceResult{
			{Status: chapters.SliceOK},
			{Status: chapters.SliceEmpty},
		},
	}
	line := subtitleStatusLine(report, false)
	if !strings.Contains(line, "[WARN] 1 sliced, 1 empty, 0 failed (French)") {
		t.Fatalf("unexpected subtitle line %q", line)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
