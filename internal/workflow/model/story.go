// Package model 定义故事生成工作流的输入输出结构
package model

import "serial-story-api/internal/domain/entity"

// Recommendation 模型给出的后续剧情方向
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Direction 将推荐转换为章节生成的方向文本
func (r Recommendation) Direction() string {
	return r.Title + ": " + r.Description
}

// ChapterPayload 章节生成输入
type ChapterPayload struct {
	ChapterNum int
	// Direction 选中的推荐或用户自定义的剧情概要
	Direction string
	Elements  entity.BookElements
	// Prologue 序章原文，序章缺失时为空
	Prologue string
}

// ChapterDraft 章节生成结果
type ChapterDraft struct {
	FinalSummary    string           `json:"final_summary"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// PrologueDraft 序章生成结果
type PrologueDraft struct {
	Prologue string `json:"prologue"`
}
