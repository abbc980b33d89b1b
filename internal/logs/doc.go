// Package logs reads the chaptersplit log file for `chaptersplit logs`.
//
// It returns the last N lines with bounded memory, resumes from byte offsets,
// and polls for new lines in follow mode until the context ends. Lines can be
// narrowed to a single run by matching its run ID.
package logs
