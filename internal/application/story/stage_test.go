package story

import (
	"context"
	"errors"
	"testing"

	"serial-story-api/internal/domain/entity"
	wfmodel "serial-story-api/internal/workflow/model"
	apperrors "serial-story-api/pkg/errors"
)

func TestResolveStage(t *testing.T) {
	ctx := context.Background()
	chapters := &memChapters{}

	st, err := ResolveStage(ctx, chapters, "b1")
	if err != nil {
		t.Fatalf("ResolveStage() error = %v", err)
	}
	if _, ok := st.(PrologueStage); !ok || st.ChapterNum() != 0 {
		t.Fatalf("empty book stage = %#v, want PrologueStage", st)
	}

	_ = chapters.Create(ctx, entity.NewChapter("b1", 0, "once upon a time"))
	st, _ = ResolveStage(ctx, chapters, "b1")
	if cs, ok := st.(ChapterStage); !ok || cs.Num != 1 || cs.PrologueText != "once upon a time" {
		t.Fatalf("stage = %#v, want ChapterStage{1, prologue}", st)
	}

	_ = chapters.Create(ctx, entity.NewChapter("b1", 1, "one"))
	_ = chapters.Create(ctx, entity.NewChapter("b2", 0, "other book"))
	st, _ = ResolveStage(ctx, chapters, "b1")
	if cs, ok := st.(ChapterStage); !ok || cs.Num != 2 || cs.PrologueText != "once upon a time" {
		t.Fatalf("stage = %#v, want ChapterStage{2, prologue}", st)
	}
}

func TestBuildChapterPayload(t *testing.T) {
	elements := entity.BookElements{Title: "T"}
	st := ChapterStage{Num: 3, PrologueText: "p"}

	tests := []struct {
		name    string
		req     GenerationRequest
		want    string
		wantErr bool
	}{
		{"summary", GenerationRequest{Summary: " hero escapes "}, "hero escapes", false},
		{"recommendation", GenerationRequest{SelectedRecommendation: &wfmodel.Recommendation{Title: "A", Description: "B"}}, "A: B", false},
		{"empty recommendation falls back to summary", GenerationRequest{SelectedRecommendation: &wfmodel.Recommendation{}, Summary: "s"}, "s", false},
		{"nothing", GenerationRequest{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := BuildChapterPayload(st, elements, tt.req)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrMissingContext) {
					t.Fatalf("error = %v, want MissingContext", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildChapterPayload() error = %v", err)
			}
			if p.Direction != tt.want || p.ChapterNum != 3 || p.Prologue != "p" || p.Elements.Title != "T" {
				t.Fatalf("payload = %+v", p)
			}
		})
	}
}
