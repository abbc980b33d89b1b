// Package youtube resolves YouTube URLs into chapter timelines and downloads
// the media and subtitle files a split run needs, driving yt-dlp.
//
// Metadata comes from a single "--dump-json" call. Subtitle listing and
// downloads run through an ordered strategy chain (player clients crossed with
// cookie and user-agent fallbacks) and report every failed attempt in a
// ChainError when nothing succeeds.
package youtube
