package chain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"serial-story-api/internal/domain/entity"
	wfmodel "serial-story-api/internal/workflow/model"
	wfnode "serial-story-api/internal/workflow/node"
)

type fakeChatModel struct {
	replies []string
	errs    []error
	calls   int
	last    []*schema.Message
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	m.last = input
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	content := ""
	if i < len(m.replies) {
		content = m.replies[i]
	}
	return schema.AssistantMessage(content, nil), nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type fakeFactory struct {
	m   *fakeChatModel
	err error
}

func (f *fakeFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.m, nil
}

var testElements = entity.BookElements{
	Title: "The Salt Road", Genre: "fantasy", Theme: "loyalty", Tone: "grim",
	Setting: "a desert empire", Characters: "Ayla, a smuggler",
}

func TestGenerateElements(t *testing.T) {
	m := &fakeChatModel{replies: []string{
		`{"title":"The Salt Road","genre":"fantasy","theme":"loyalty","tone":"grim","setting":"a desert empire","characters":"Ayla"}`,
	}}
	c := NewStoryChain(&fakeFactory{m: m}, "openai")

	got, err := c.GenerateElements(context.Background(), "a smuggler crosses the desert")
	if err != nil {
		t.Fatalf("GenerateElements() error = %v", err)
	}
	if got.Title != "The Salt Road" || got.Characters != "Ayla" {
		t.Fatalf("unexpected elements: %+v", got)
	}
	if len(m.last) != 2 || !strings.Contains(m.last[1].Content, "a smuggler crosses the desert") {
		t.Fatalf("prompt not rendered into user message: %+v", m.last)
	}
}

func TestGeneratePrologueRejectsMalformedOutput(t *testing.T) {
	for _, reply := range []string{"", "I cannot do that", `{"prologue": ""}`} {
		m := &fakeChatModel{replies: []string{reply}}
		c := NewStoryChain(&fakeFactory{m: m}, "")
		if _, err := c.GeneratePrologue(context.Background(), testElements); !errors.Is(err, wfnode.ErrInvalidOutput) {
			t.Fatalf("GeneratePrologue(%q) error = %v, want ErrInvalidOutput", reply, err)
		}
	}
}

func TestGenerateChapterRendersContext(t *testing.T) {
	m := &fakeChatModel{replies: []string{
		"```json\n" + `{"final_summary":"Ayla escapes.","recommendations":[{"title":"Ambush","description":"Raiders strike"}]}` + "\n```",
	}}
	c := NewStoryChain(&fakeFactory{m: m}, "openai")

	draft, err := c.GenerateChapter(context.Background(), wfmodel.ChapterPayload{
		ChapterNum: 2,
		Direction:  "hero escapes",
		Elements:   testElements,
		Prologue:   "In the beginning.",
	})
	if err != nil {
		t.Fatalf("GenerateChapter() error = %v", err)
	}
	if draft.FinalSummary != "Ayla escapes." || len(draft.Recommendations) != 1 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.Recommendations[0].Direction() != "Ambush: Raiders strike" {
		t.Fatalf("Direction() = %q", draft.Recommendations[0].Direction())
	}
	user := m.last[1].Content
	for _, want := range []string{"Chapter number: 2", "hero escapes", "In the beginning.", "The Salt Road"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestGenerateChapterRequiresDirection(t *testing.T) {
	m := &fakeChatModel{}
	c := NewStoryChain(&fakeFactory{m: m}, "openai")
	if _, err := c.GenerateChapter(context.Background(), wfmodel.ChapterPayload{ChapterNum: 1}); err == nil {
		t.Fatalf("expected error for empty direction")
	}
	if m.calls != 0 {
		t.Fatalf("model should not be called, calls = %d", m.calls)
	}
}

func TestResponseFormatFallback(t *testing.T) {
	m := &fakeChatModel{
		errs:    []error{errors.New("400 unknown parameter: response_format"), nil},
		replies: []string{"", `{"prologue":"It begins."}`},
	}
	c := NewStoryChain(&fakeFactory{m: m}, "openai")

	got, err := c.GeneratePrologue(context.Background(), testElements)
	if err != nil {
		t.Fatalf("GeneratePrologue() error = %v", err)
	}
	if got != "It begins." || m.calls != 2 {
		t.Fatalf("got %q after %d calls", got, m.calls)
	}
}

func TestFactoryErrorPropagates(t *testing.T) {
	boom := errors.New("provider missing")
	c := NewStoryChain(&fakeFactory{err: boom}, "nope")
	_, err := c.GeneratePrologue(context.Background(), testElements)
	if err == nil || !strings.Contains(err.Error(), "provider missing") {
		t.Fatalf("error = %v, want provider error", err)
	}
}
