package workflow

import (
	"context"
	"fmt"
	"strings"

	"chaptersplit/internal/deps"
)

// StageHealth summarizes the readiness of one run prerequisite.
type StageHealth struct {
	Name     string
	Ready    bool
	Optional bool
	Detail   string
}

// HealthyStage constructs a ready StageHealth record.
func HealthyStage(name, detail string) StageHealth {
	return StageHealth{Name: name, Ready: true, Detail: detail}
}

// UnhealthyStage constructs an unhealthy StageHealth record with context detail.
func UnhealthyStage(name, detail string) StageHealth {
	return StageHealth{Name: name, Ready: false, Detail: detail}
}

// EncoderChecker reports encoder availability.
type EncoderChecker interface {
	HasEncoder(ctx context.Context, name string) bool
}

// Health checks the external tools, encoders, and directories a run needs.
// encoders may be nil to skip encoder checks.
func (r *Runner) Health(ctx context.Context, encoders EncoderChecker) []StageHealth {
	cfg := r.cfg
	var out []StageHealth
	for _, status := range deps.CheckBinaries(deps.DefaultRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary(), cfg.YtDlpBinary())) {
		out = append(out, fromStatus(status))
	}

	if encoders != nil {
		software := cfg.Encoding
		if encoders.HasEncoder(ctx, "libx264") {
			out = append(out, HealthyStage("libx264", "preset "+software.Preset))
		} else {
			out = append(out, UnhealthyStage("libx264", "ffmpeg lacks the libx264 encoder"))
		}
		if cfg.Hardware.Enabled {
			name := cfg.Hardware.Encoder
			health := HealthyStage(name, "hardware encoding available")
			if !encoders.HasEncoder(ctx, name) {
				health = UnhealthyStage(name, "not available; cuts fall back to libx264")
			}
			health.Optional = true
			out = append(out, health)
		}
	}

	for _, dir := range []struct{ name, path string }{
		{"out_dir", cfg.Paths.OutDir},
		{"work_dir", cfg.Paths.WorkDir},
	} {
		out = append(out, fromStatus(deps.CheckDirectoryAccess(dir.name, dir.path)))
	}
	return out
}

// Ready reports whether every required check passed.
func Ready(checks []StageHealth) bool {
	for _, check := range checks {
		if !check.Ready && !check.Optional {
			return false
		}
	}
	return true
}

func fromStatus(status deps.Status) StageHealth {
	detail := strings.TrimSpace(status.Detail)
	if status.Available && detail == "" {
		detail = fmt.Sprintf("found %s", status.Command)
	}
	return StageHealth{
		Name:     status.Name,
		Ready:    status.Available,
		Optional: status.Optional,
		Detail:   detail,
	}
}
