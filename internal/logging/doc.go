// Package logging assembles the slog loggers used by chaptersplit.
//
// It owns the console and JSON handlers and the level and output plumbing.
// Context helpers tag lines with the run ID, pipeline stage, and chapter
// index so worker output can be correlated after the fact. NewNop serves
// tests and wiring code that has no logger to hand.
package logging
