// Package prompt 管理章节流水线各阶段的提示词模板
package prompt

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// 每个模板由 <id>.system.txt 与 <id>.user.txt 两个文件组成，变量使用 {name} 占位
//
//go:embed templates/*.txt
var templatesFS embed.FS

// PromptID 模板标识，带版本后缀以便灰度替换
type PromptID string

const (
	PromptElementsV1       PromptID = "elements_v1"
	PromptPrologueV1       PromptID = "prologue_v1"
	PromptChapterSummaryV1 PromptID = "chapter_summary_v1"
)

// Registry 按需解析并缓存模板，可并发使用
type Registry struct {
	templates sync.Map // PromptID -> einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{}
}

// ChatTemplate 返回 system + user 两条消息组成的模板
func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}
	if cached, ok := r.templates.Load(id); ok {
		return cached.(einoprompt.ChatTemplate), nil
	}

	tpl, err := loadTemplate(id)
	if err != nil {
		return nil, err
	}
	actual, _ := r.templates.LoadOrStore(id, tpl)
	return actual.(einoprompt.ChatTemplate), nil
}

func loadTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	parts := make(map[string]string, 2)
	for _, role := range []string{"system", "user"} {
		name := path.Join("templates", fmt.Sprintf("%s.%s.txt", id, role))
		b, err := templatesFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("prompt %q has no %s template: %w", id, role, err)
		}
		parts[role] = strings.TrimSpace(string(b))
	}
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(parts["system"]),
		schema.UserMessage(parts["user"]),
	), nil
}
