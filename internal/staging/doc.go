// Package staging inspects and prunes the work directory where downloaded
// sources, fetched subtitles, and partial yt-dlp files accumulate between runs.
//
// Entries are classified by extension so the CLI can show what a cleanup will
// reclaim. Partial downloads are treated as stale as soon as they pass the age
// cutoff; nothing is removed on a dry run.
package staging
