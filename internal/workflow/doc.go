// Package workflow runs one split end to end.
//
// A Runner resolves the reference (YouTube URL or local file) to a timeline,
// builds and validates the plan, acquires the source, and cuts the chapters
// on the cutter's worker pool while holding an advisory lock on the video
// output directory. When subtitles are enabled it then locates a track,
// checks it against the source duration, and slices it per chapter.
//
// Per-chapter failures are reported in the Report; Run only returns an error
// when the timeline, the plan, the lock, or the source cannot be obtained.
package workflow
