package services_test

import (
	"context"
	"testing"

	"equiv/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "score")
	ctx = services.WithPipeline(ctx, "bbc-items")
	ctx = services.WithSubject(ctx, "http://bbc.co.uk/p1")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "score" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if name, ok := services.PipelineFromContext(ctx); !ok || name != "bbc-items" {
		t.Fatalf("unexpected pipeline: %v %v", name, ok)
	}
	if uri, ok := services.SubjectFromContext(ctx); !ok || uri != "http://bbc.co.uk/p1" {
		t.Fatalf("unexpected subject: %v %v", uri, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
