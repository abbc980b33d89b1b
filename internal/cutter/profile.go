package cutter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"chaptersplit/internal/config"
)

// Profile is the encoder configuration for a single ffmpeg attempt.
type Profile struct {
	Hardware     bool
	Encoder      string
	Preset       string
	CRF          int
	CQ           int
	AudioCodec   string
	AudioBitrate string
}

// SoftwareProfile returns the libx264 profile described by the [encoding] section.
func SoftwareProfile(enc config.Encoding) Profile {
	return Profile{
		Encoder:      "libx264",
		Preset:       enc.Preset,
		CRF:          enc.CRF,
		AudioCodec:   enc.AudioCodec,
		AudioBitrate: enc.AudioBitrate,
	}
}

// HardwareProfile returns the NVENC profile described by the [hardware] section.
// Audio is stream-copied on this path.
func HardwareProfile(hw config.Hardware) Profile {
	return Profile{
		Hardware: true,
		Encoder:  hw.Encoder,
		Preset:   hw.Preset,
		CQ:       hw.CQ,
	}
}

// WithPreset returns a copy of p using preset.
func (p Profile) WithPreset(preset string) Profile {
	p.Preset = preset
	return p
}

// String renders the profile for logs and result tables, e.g. "libx264/veryfast".
func (p Profile) String() string {
	return p.Encoder + "/" + p.Preset
}

// VideoArgs returns the codec arguments for the video stream.
func (p Profile) VideoArgs() []string {
	if p.Hardware {
		return []string{"-c:v", p.Encoder, "-preset", p.Preset, "-cq", strconv.Itoa(p.CQ)}
	}
	return []string{"-c:v", p.Encoder, "-crf", strconv.Itoa(p.CRF), "-preset", p.Preset}
}

// AudioArgs returns the codec arguments for audio streams.
func (p Profile) AudioArgs() []string {
	if p.Hardware {
		return []string{"-c:a", "copy"}
	}
	return []string{"-c:a", p.AudioCodec, "-b:a", p.AudioBitrate}
}

// NextSlowerPreset returns the libx264 preset one step slower than preset.
// veryslow has no slower step; unknown presets map to medium.
func NextSlowerPreset(preset string) string {
	ladder := config.SoftwarePresets
	i := slices.Index(ladder, strings.ToLower(strings.TrimSpace(preset)))
	switch {
	case i < 0:
		return "medium"
	case i == len(ladder)-1:
		return ladder[i]
	default:
		return ladder[i+1]
	}
}

// CropFilter returns "crop=W:H:left:top" for a source of width x height with
// the configured margins removed. It returns "" when every margin is zero and
// an error when the cropped frame falls below the configured minimum.
func CropFilter(width, height int, crop config.Crop) (string, error) {
	if crop.Top == 0 && crop.Bottom == 0 && crop.Left == 0 && crop.Right == 0 {
		return "", nil
	}
	w := width - crop.Left - crop.Right
	h := height - crop.Top - crop.Bottom
	if w < crop.MinWidth {
		return "", fmt.Errorf("cropped width %dpx is below minimum %dpx", w, crop.MinWidth)
	}
	if h < crop.MinHeight {
		return "", fmt.Errorf("cropped height %dpx is below minimum %dpx", h, crop.MinHeight)
	}
	return fmt.Sprintf("crop=%d:%d:%d:%d", w, h, crop.Left, crop.Top), nil
}

// wrapFilter adapts a CPU filter chain to the profile; the hardware path has to
// move frames off the GPU and back around a CPU filter.
func wrapFilter(filter string, p Profile) string {
	if filter == "" || !p.Hardware {
		return filter
	}
	return "hwupload_cuda," + filter + ",hwdownload"
}
