package workflow

import (
	"context"
	"testing"

	"chaptersplit/internal/testsupport"
)

type encoderSet map[string]bool

func (e encoderSet) HasEncoder(_ context.Context, name string) bool { return e[name] }

func TestHealthReportsBinariesEncodersAndDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Hardware.Enabled = true
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	r := New(cfg, nil, WithSources(&fakeSource{}, &fakeSource{}), WithSubtitleFinder(&fakeFinder{}), WithCutter(&fakeCutter{}))

	checks := r.Health(context.Background(), encoderSet{"libx264": true})
	byName := make(map[string]StageHealth, len(checks))
	for _, check := range checks {
		byName[check.Name] = check
	}
	for _, name := range []string{"FFmpeg", "FFprobe", "yt-dlp", "libx264", "out_dir", "work_dir"} {
		if !byName[name].Ready {
			t.Fatalf("expected %s to be ready, got %+v", name, byName[name])
		}
	}
	hw := byName[cfg.Hardware.Encoder]
	if hw.Ready || !hw.Optional {
		t.Fatalf("expected optional unavailable hardware encoder, got %+v", hw)
	}
	if !Ready(checks) {
		t.Fatalf("optional failures must not block readiness: %+v", checks)
	}

	checks = r.Health(context.Background(), encoderSet{})
	if Ready(checks) {
		t.Fatal("missing libx264 should block readiness")
	}
}
