package story

import (
	"context"

	"serial-story-api/internal/domain/entity"
	wfmodel "serial-story-api/internal/workflow/model"
)

// ContentGenerator 生成要素、序章与章节概要
type ContentGenerator interface {
	GenerateElements(ctx context.Context, prompt string) (entity.BookElements, error)
	GeneratePrologue(ctx context.Context, elements entity.BookElements) (string, error)
	GenerateChapter(ctx context.Context, payload wfmodel.ChapterPayload) (*wfmodel.ChapterDraft, error)
}

// Translator 将生成内容翻译为目标语言
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// ImageProvider 根据简短描述生成图片
type ImageProvider interface {
	Generate(ctx context.Context, prompt, size string) ([]byte, error)
}

// ImageStore 图片文件存储
type ImageStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// EventPublisher 发布书籍与章节事件（尽力而为，不影响主流程）
type EventPublisher interface {
	BookCreated(ctx context.Context, book *entity.Book)
	ChapterCreated(ctx context.Context, chapter *entity.Chapter)
}
