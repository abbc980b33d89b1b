// Package local builds chapter timelines for media files already on disk.
//
// Chapters come from a YAML sheet next to the file ("talk.chapters.yaml" for
// "talk.mp4") or from an explicit path; without a sheet the whole recording
// becomes a single chapter.
package local
