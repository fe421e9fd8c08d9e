// Package service 提供跨层共享的领域上下文
package service

import (
	"context"
	"strings"
)

const unknownLabel = "unknown"

type llmCallKey struct{}

// LLMCall 一次模型调用的归属信息，用于指标标签与追踪属性
type LLMCall struct {
	// Stage 生成阶段，例如 story_elements / story_prologue / story_chapter
	Stage    string
	Provider string
}

// WithLLMCall 在上下文中记录调用归属，空白字段沿用上层已有的值
func WithLLMCall(ctx context.Context, stage, provider string) context.Context {
	call, _ := ctx.Value(llmCallKey{}).(LLMCall)
	if s := strings.TrimSpace(stage); s != "" {
		call.Stage = s
	}
	if p := strings.TrimSpace(provider); p != "" {
		call.Provider = p
	}
	return context.WithValue(ctx, llmCallKey{}, call)
}

// LLMCallFromContext 读取调用归属，缺失字段为 unknown
func LLMCallFromContext(ctx context.Context) LLMCall {
	call, _ := ctx.Value(llmCallKey{}).(LLMCall)
	if call.Stage == "" {
		call.Stage = unknownLabel
	}
	if call.Provider == "" {
		call.Provider = unknownLabel
	}
	return call
}
