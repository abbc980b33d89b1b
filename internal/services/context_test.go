package services_test

import (
	"context"
	"testing"

	"chaptersplit/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "cutting")
	ctx = services.WithChapterIndex(ctx, 3)

	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "cutting" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if idx, ok := services.ChapterIndexFromContext(ctx); !ok || idx != 3 {
		t.Fatalf("unexpected chapter index: %v %v", idx, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithChapterIndex(ctx, 0)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected blank stage to be ignored")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected blank run id to be ignored")
	}
	if _, ok := services.ChapterIndexFromContext(ctx); ok {
		t.Fatal("expected zero chapter index to be ignored")
	}
}
