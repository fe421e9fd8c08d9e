package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"serial-story-api/internal/domain/entity"
	llmctx "serial-story-api/internal/domain/service"
	wfmodel "serial-story-api/internal/workflow/model"
	wfnode "serial-story-api/internal/workflow/node"
	workflowport "serial-story-api/internal/workflow/port"
	workflowprompt "serial-story-api/internal/workflow/prompt"
	"serial-story-api/pkg/logger"
)

// stage 单个生成阶段的模板、schema 与工作流名称
type stage struct {
	workflow string
	promptID workflowprompt.PromptID
	schema   *wfnode.OutputSchema
}

var (
	elementsStage = stage{
		workflow: "story_elements",
		promptID: workflowprompt.PromptElementsV1,
		schema:   wfnode.MustCompileSchema("story_elements", elementsJSONSchema()),
	}
	prologueStage = stage{
		workflow: "story_prologue",
		promptID: workflowprompt.PromptPrologueV1,
		schema:   wfnode.MustCompileSchema("story_prologue", prologueJSONSchema()),
	}
	chapterStage = stage{
		workflow: "story_chapter",
		promptID: workflowprompt.PromptChapterSummaryV1,
		schema:   wfnode.MustCompileSchema("story_chapter", chapterJSONSchema()),
	}
)

type stageRequest struct {
	Stage    stage
	Provider string
	Vars     map[string]any
}

type storyChainState struct {
	In       *stageRequest
	Messages []*schema.Message
	OutMsg   *schema.Message
}

// StoryChain 基于 Eino 的故事内容生成器
type StoryChain struct {
	factory  workflowport.ChatModelFactory
	provider string
	prompts  *workflowprompt.Registry

	chainOnce sync.Once
	chain     compose.Runnable[*stageRequest, *schema.Message]
	chainErr  error
}

// NewStoryChain 创建故事生成链，provider 为空时使用默认提供商
func NewStoryChain(factory workflowport.ChatModelFactory, provider string) *StoryChain {
	return &StoryChain{
		factory:  factory,
		provider: strings.TrimSpace(provider),
		prompts:  workflowprompt.NewRegistry(),
	}
}

// GenerateElements 根据用户的故事构想生成要素
func (c *StoryChain) GenerateElements(ctx context.Context, prompt string) (entity.BookElements, error) {
	var out entity.BookElements
	if strings.TrimSpace(prompt) == "" {
		return out, fmt.Errorf("prompt is required")
	}
	err := c.run(ctx, elementsStage, map[string]any{
		"prompt": strings.TrimSpace(prompt),
	}, &out)
	return out, err
}

// GeneratePrologue 根据要素生成序章
func (c *StoryChain) GeneratePrologue(ctx context.Context, elements entity.BookElements) (string, error) {
	var out wfmodel.PrologueDraft
	if err := c.run(ctx, prologueStage, elementsVars(elements), &out); err != nil {
		return "", err
	}
	return out.Prologue, nil
}

// GenerateChapter 生成下一章及后续推荐
func (c *StoryChain) GenerateChapter(ctx context.Context, payload wfmodel.ChapterPayload) (*wfmodel.ChapterDraft, error) {
	if strings.TrimSpace(payload.Direction) == "" {
		return nil, fmt.Errorf("chapter direction is required")
	}
	vars := elementsVars(payload.Elements)
	vars["chapter_num"] = payload.ChapterNum
	vars["direction"] = strings.TrimSpace(payload.Direction)
	vars["prologue"] = strings.TrimSpace(payload.Prologue)

	var out wfmodel.ChapterDraft
	if err := c.run(ctx, chapterStage, vars, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *StoryChain) run(ctx context.Context, st stage, vars map[string]any, out any) error {
	if c == nil || c.factory == nil {
		return fmt.Errorf("llm factory not configured")
	}
	runnable, err := c.getChain()
	if err != nil {
		return err
	}

	msg, err := runnable.Invoke(ctx, &stageRequest{Stage: st, Provider: c.provider, Vars: vars})
	if err != nil {
		return err
	}
	if err := st.schema.Decode(msg.Content, out); err != nil {
		logger.Warn(ctx, "llm output rejected",
			"workflow", st.workflow,
			"preview", wfnode.TruncateByRunes(msg.Content, 200),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (c *StoryChain) getChain() (compose.Runnable[*stageRequest, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *StoryChain) buildChain(ctx context.Context) (compose.Runnable[*stageRequest, *schema.Message], error) {
	chain := compose.NewChain[*stageRequest, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, in *stageRequest) (*storyChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			tpl, err := c.prompts.ChatTemplate(in.Stage.promptID)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, in.Vars)
			if err != nil {
				return nil, fmt.Errorf("failed to format prompt %s: %w", in.Stage.promptID, err)
			}
			return &storyChainState{In: in, Messages: msgs}, nil
		}),
		compose.WithNodeName("story.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *storyChainState) (*storyChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = llmctx.WithLLMCall(ctx, st.In.Stage.workflow, st.In.Provider)
			chatModel, err := c.factory.Get(ctx, st.In.Provider)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildStoryModelOptions(st.In.Stage, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", st.In.Provider,
					"workflow", st.In.Stage.workflow,
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildStoryModelOptions(st.In.Stage, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("story.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *storyChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("story.finalize"),
	)

	return chain.Compile(ctx)
}

func elementsVars(e entity.BookElements) map[string]any {
	return map[string]any{
		"title":      strings.TrimSpace(e.Title),
		"genre":      strings.TrimSpace(e.Genre),
		"theme":      strings.TrimSpace(e.Theme),
		"tone":       strings.TrimSpace(e.Tone),
		"setting":    strings.TrimSpace(e.Setting),
		"characters": strings.TrimSpace(e.Characters),
	}
}

func buildStoryModelOptions(st stage, enableSchema bool) []model.Option {
	if !enableSchema {
		return nil
	}
	return []model.Option{
		openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   st.schema.Name(),
					"strict": false,
					"schema": st.schema.Raw(),
				},
			},
		}),
	}
}

func nonEmptyString() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func elementsJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"title", "genre", "theme", "tone", "setting", "characters"},
		"properties": map[string]any{
			"title":      nonEmptyString(),
			"genre":      map[string]any{"type": "string"},
			"theme":      map[string]any{"type": "string"},
			"tone":       map[string]any{"type": "string"},
			"setting":    map[string]any{"type": "string"},
			"characters": map[string]any{"type": "string"},
		},
	}
}

func prologueJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"prologue"},
		"properties": map[string]any{
			"prologue": nonEmptyString(),
		},
	}
}

func chapterJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"final_summary"},
		"properties": map[string]any{
			"final_summary": nonEmptyString(),
			"recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"title", "description"},
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
}
