package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chaptersplit/internal/services"
	"chaptersplit/internal/testsupport"
	"chaptersplit/internal/timecode"
)

type fakeProber struct {
	duration float64
	err      error
}

func (f fakeProber) Duration(context.Context, string) (float64, error) {
	return f.duration, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseSheet(t *testing.T) {
	sheet, err := ParseSheet([]byte(`
id: talk2024
title: Conference Talk
chapters:
  - title: Demo
    start: "05:30.5"
    end: "12:00"
  - title: Intro
    start: "00:00"
  - title: Q&A
    start: "12:00"
`))
	if err != nil {
		t.Fatalf("ParseSheet returned error: %v", err)
	}
	if sheet.ID != "talk2024" || sheet.Title != "Conference Talk" || len(sheet.Chapters) != 3 {
		t.Fatalf("unexpected sheet %+v", sheet)
	}

	list, err := sheet.Build(900)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	want := []struct {
		title      string
		start, end float64
	}{
		{"Intro", 0, 330.5},
		{"Demo", 330.5, 720},
		{"Q&A", 720, 900},
	}
	for i, w := range want {
		c := list[i]
		if c.Index != i+1 || c.Title != w.title || c.StartS != w.start || c.EndS != w.end {
			t.Fatalf("chapter %d = %+v, want %+v", i, c, w)
		}
	}
}

func TestParseSheetBareList(t *testing.T) {
	sheet, err := ParseSheet([]byte("- title: Only\n  start: 0\n"))
	if err != nil {
		t.Fatalf("ParseSheet returned error: %v", err)
	}
	list, err := sheet.Build(42)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(list) != 1 || list[0].EndS != 42 {
		t.Fatalf("unexpected chapters %+v", list)
	}
}

func TestParseSheetRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no chapters":  "title: x\nchapters: []\n",
		"bad timecode": "chapters:\n  - title: a\n    start: \"00:61\"\n",
		"mapping time": "chapters:\n  - title: a\n    start: {m: 1}\n",
		"unknown type": "chapters: 3\n",
	}
	for name, doc := range cases {
		if _, err := ParseSheet([]byte(doc)); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	_, err := ParseSheet([]byte("chapters:\n  - title: a\n    start: \"xx\"\n"))
	if !errors.Is(err, timecode.ErrInvalid) {
		t.Fatalf("expected timecode error to be preserved, got %v", err)
	}
}

func TestBuildRejectsEndBeforeStart(t *testing.T) {
	sheet, err := ParseSheet([]byte("chapters:\n  - title: a\n    start: \"00:10\"\n    end: \"00:05\"\n"))
	if err != nil {
		t.Fatalf("ParseSheet returned error: %v", err)
	}
	if _, err := sheet.Build(60); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTimelineUsesSiblingSheet(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "talk.mp4")
	testsupport.WriteFile(t, media, 64)
	writeFile(t, filepath.Join(dir, "talk.chapters.yaml"), "chapters:\n  - title: Intro\n    start: \"00:00\"\n  - title: Body\n    start: \"01:00\"\n")

	provider := New(fakeProber{duration: 240}, "", nil)
	timeline, err := provider.Timeline(context.Background(), media)
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if timeline.Title != "talk" || timeline.ID != VideoID(media) || len(timeline.ID) != 11 {
		t.Fatalf("unexpected timeline identity %+v", timeline)
	}
	if len(timeline.Chapters) != 2 || timeline.Chapters[1].EndS != 240 {
		t.Fatalf("unexpected chapters %+v", timeline.Chapters)
	}

	source, err := provider.Acquire(context.Background(), timeline, false)
	if err != nil || source != media {
		t.Fatalf("Acquire = %q, %v", source, err)
	}
}

func TestTimelineWithoutSheet(t *testing.T) {
	media := filepath.Join(t.TempDir(), "lecture.mkv")
	testsupport.WriteFile(t, media, 64)

	timeline, err := New(fakeProber{duration: 61.25}, "", nil).Timeline(context.Background(), media)
	if err != nil {
		t.Fatalf("Timeline returned error: %v", err)
	}
	if len(timeline.Chapters) != 1 || timeline.Chapters[0].Title != "lecture" || timeline.Chapters[0].EndS != 61.25 {
		t.Fatalf("unexpected chapters %+v", timeline.Chapters)
	}
}

func TestTimelineErrors(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")

	if _, err := New(fakeProber{duration: 10}, "", nil).Timeline(context.Background(), media); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected missing source to be ErrNotFound, got %v", err)
	}

	testsupport.WriteFile(t, media, 64)
	missingSheet := filepath.Join(dir, "nope.yaml")
	if _, err := New(fakeProber{duration: 10}, missingSheet, nil).Timeline(context.Background(), media); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected missing explicit sheet to be ErrNotFound, got %v", err)
	}

	probeErr := errors.New("moov atom not found")
	if _, err := New(fakeProber{err: probeErr}, "", nil).Timeline(context.Background(), media); !errors.Is(err, probeErr) {
		t.Fatalf("expected probe error, got %v", err)
	}

	overlap := filepath.Join(dir, "overlap.yaml")
	writeFile(t, overlap, "chapters:\n  - title: a\n    start: \"00:00\"\n    end: \"00:30\"\n  - title: b\n    start: \"00:20\"\n")
	if _, err := New(fakeProber{duration: 60}, overlap, nil).Timeline(context.Background(), media); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected overlapping sheet to fail validation, got %v", err)
	}
}
