// Package ffprobe wraps ffprobe for the media queries chaptersplit needs.
//
// Inspect decodes the full JSON report. Prober adds bounded single-purpose
// queries (duration, resolution, keyframes) that return *ProbeError values
// classified with the services sentinels.
package ffprobe
