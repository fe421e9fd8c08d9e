package eino

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
)

func TestElapsedSeconds(t *testing.T) {
	if got := elapsedSeconds(context.Background()); got != 0 {
		t.Fatalf("elapsedSeconds() without start = %v", got)
	}
	ctx := context.WithValue(context.Background(), startTimeKey{}, time.Now().Add(-time.Second))
	if got := elapsedSeconds(ctx); got < 1 {
		t.Fatalf("elapsedSeconds() = %v, want >= 1", got)
	}
}

func TestModelNames(t *testing.T) {
	if modelNameFromInput(nil) != "" || modelNameFromOutput(nil) != "" {
		t.Fatalf("nil callbacks should yield empty model name")
	}
	in := &model.CallbackInput{Config: &model.Config{Model: "gpt-4o-mini"}}
	if got := modelNameFromInput(in); got != "gpt-4o-mini" {
		t.Fatalf("modelNameFromInput() = %q", got)
	}
	ctx := context.WithValue(context.Background(), modelKey{}, "gpt-4o")
	if got := modelNameFromContext(ctx); got != "gpt-4o" {
		t.Fatalf("modelNameFromContext() = %q", got)
	}
}
