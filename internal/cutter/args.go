package cutter

import (
	"fmt"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/timecode"
)

// BuildArgs assembles the ffmpeg argument list (without the binary) for cutting
// item out of source with profile. filter is an optional CPU filter chain.
func BuildArgs(source string, item chapters.PlanItem, profile Profile, filter string) ([]string, error) {
	start, err := timecode.Format(item.StartS, true)
	if err != nil {
		return nil, fmt.Errorf("format start: %w", err)
	}
	end, err := timecode.Format(item.EndS, true)
	if err != nil {
		return nil, fmt.Errorf("format end: %w", err)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if profile.Hardware {
		args = append(args, "-hwaccel", "cuda")
	}
	args = append(args, "-i", source, "-ss", start, "-to", end)
	if vf := wrapFilter(filter, profile); vf != "" {
		args = append(args, "-vf", vf)
	}
	args = append(args, profile.VideoArgs()...)
	args = append(args, profile.AudioArgs()...)
	args = append(args, "-movflags", "+faststart", "-map", "0", "-y", item.OutputPath)
	return args, nil
}
