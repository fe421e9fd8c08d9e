package story

import (
	"strings"

	"serial-story-api/internal/domain/entity"
	wfmodel "serial-story-api/internal/workflow/model"
	apperrors "serial-story-api/pkg/errors"
)

// 降级时附加在结果上的警告标记
const (
	WarningTranslationUnavailable = "translation_unavailable"
	WarningImageUnavailable       = "image_unavailable"
)

// GenerationRequest 生成下一章的请求
type GenerationRequest struct {
	BookID string
	// UserID 非空时校验书籍归属
	UserID         string
	TargetLanguage string
	// SelectedRecommendation 与 Summary 二选一，推荐优先
	SelectedRecommendation *wfmodel.Recommendation
	Summary                string
}

// GenerationResult 生成结果
type GenerationResult struct {
	BookID     string
	ChapterNum int
	Stage      string
	// Content 持久化的原文
	Content string
	// TranslatedContent 目标语言文本；翻译失败时等于 Content
	TranslatedContent string
	Language          string
	Recommendations   []wfmodel.Recommendation
	Warnings          []string
	// TranslationErr 翻译失败原因（已降级）
	TranslationErr error
}

// CreateBookInput 创建书籍请求
type CreateBookInput struct {
	Prompt   string
	OwnerID  string
	Language string
}

// CreateBookResult 创建书籍结果
type CreateBookResult struct {
	Book *entity.Book
	// Content 翻译后的要素，持久化的要素保持原文
	Content  entity.BookElements
	Language string
	ImageURL string
	Warnings []string
	// ImageErr 封面生成失败原因；RequireImage 为 false 时不中止创建
	ImageErr       error
	TranslationErr error
}

// chapterDirection 选中的推荐优先，否则使用用户概要
func chapterDirection(req GenerationRequest) string {
	if r := req.SelectedRecommendation; r != nil && strings.TrimSpace(r.Title+r.Description) != "" {
		return r.Direction()
	}
	return strings.TrimSpace(req.Summary)
}

// BuildChapterPayload 组装章节生成上下文
func BuildChapterPayload(st ChapterStage, elements entity.BookElements, req GenerationRequest) (wfmodel.ChapterPayload, error) {
	direction := chapterDirection(req)
	if direction == "" {
		return wfmodel.ChapterPayload{}, apperrors.ErrMissingContext.WithDetail("summary or selected_recommendation is required after the prologue")
	}
	return wfmodel.ChapterPayload{
		ChapterNum: st.Num,
		Direction:  direction,
		Elements:   elements,
		Prologue:   st.PrologueText,
	}, nil
}
