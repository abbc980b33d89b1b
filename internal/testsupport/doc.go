// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, sized files, and /bin/sh stubs for ffmpeg, ffprobe, and yt-dlp.
package testsupport
