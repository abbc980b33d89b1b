package services

import "context"

type contextKey string

const (
	runIDKey        contextKey = "run_id"
	stageKey        contextKey = "stage"
	chapterIndexKey contextKey = "chapter_index"
)

// WithRunID annotates context with the identifier of the current split run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithChapterIndex annotates context with the 1-based chapter being processed.
func WithChapterIndex(ctx context.Context, index int) context.Context {
	if index <= 0 {
		return ctx
	}
	return context.WithValue(ctx, chapterIndexKey, index)
}

// ChapterIndexFromContext extracts the chapter index if present.
func ChapterIndexFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(chapterIndexKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
