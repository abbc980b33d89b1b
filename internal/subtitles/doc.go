// Package subtitles reads, re-times, and writes chapter subtitle tracks.
//
// ParseFile decodes SRT and WebVTT into a Track of chapters.SubtitleEntry
// values, the Slicer re-windows that track into one SRT file per chapter, and
// the Locator finds a track for a video from an explicit path, the local work
// directories, or a provider download.
package subtitles
