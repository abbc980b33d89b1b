// Package cutter extracts chapter segments with ffmpeg.
//
// Every cut re-encodes so that segment bounds land on the requested frame
// rather than the nearest keyframe. The encoder profile is chosen per cut
// (NVENC when configured and reported by ffmpeg, libx264 otherwise) and is
// passed explicitly to each attempt. A non-zero ffmpeg exit is retried once on
// the software path at the next slower preset. Finished files are verified
// against the expected duration with ffprobe.
package cutter
