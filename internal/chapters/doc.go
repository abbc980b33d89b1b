// Package chapters holds the value objects shared by the planner, cutter, and
// subtitle slicer.
//
// Chapters, timelines, plan items, and subtitle entries can only be obtained
// through the checked constructors in this package, so any value a caller
// holds already satisfies its interval invariants. Result types (CutResult,
// SubtitleSliceResult) are produced once per chapter and never mutated.
package chapters
