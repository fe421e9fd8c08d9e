package dto

import (
	"time"

	"serial-story-api/internal/application/story"
	"serial-story-api/internal/domain/entity"
	wfmodel "serial-story-api/internal/workflow/model"
)

// RecommendationDTO 后续剧情推荐
type RecommendationDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GenerateChapterRequest 生成下一章请求
// 序章之后 selected_recommendation 与 summary 至少提供一个
type GenerateChapterRequest struct {
	Language               string             `json:"language" binding:"omitempty,max=16"`
	SelectedRecommendation *RecommendationDTO `json:"selected_recommendation"`
	Summary                string             `json:"summary" binding:"max=4000"`
}

// GenerateChapterResponse 生成结果
type GenerateChapterResponse struct {
	BookID            string              `json:"book_id"`
	ChapterNum        int                 `json:"chapter_num"`
	TranslatedContent string              `json:"translated_content"`
	Language          string              `json:"language"`
	Recommendations   []RecommendationDTO `json:"recommendations"`
	Warnings          []string            `json:"warnings,omitempty"`
}

// ChapterDTO 章节
type ChapterDTO struct {
	ID         string    `json:"id"`
	ChapterNum int       `json:"chapter_num"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToGenerationRequest 转换为编排器请求
func (r *GenerateChapterRequest) ToGenerationRequest(bookID, userID string) story.GenerationRequest {
	req := story.GenerationRequest{
		BookID:         bookID,
		UserID:         userID,
		TargetLanguage: r.Language,
		Summary:        r.Summary,
	}
	if r.SelectedRecommendation != nil {
		req.SelectedRecommendation = &wfmodel.Recommendation{
			Title:       r.SelectedRecommendation.Title,
			Description: r.SelectedRecommendation.Description,
		}
	}
	return req
}

// ToGenerateChapterResponse 生成结果转换为响应
func ToGenerateChapterResponse(res *story.GenerationResult) *GenerateChapterResponse {
	recs := make([]RecommendationDTO, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		recs = append(recs, RecommendationDTO{Title: r.Title, Description: r.Description})
	}
	return &GenerateChapterResponse{
		BookID:            res.BookID,
		ChapterNum:        res.ChapterNum,
		TranslatedContent: res.TranslatedContent,
		Language:          res.Language,
		Recommendations:   recs,
		Warnings:          res.Warnings,
	}
}

// ToChapterDTOs 章节列表转换
func ToChapterDTOs(chapters []*entity.Chapter) []*ChapterDTO {
	out := make([]*ChapterDTO, 0, len(chapters))
	for _, c := range chapters {
		out = append(out, &ChapterDTO{
			ID:         c.ID,
			ChapterNum: c.ChapterNum,
			Content:    c.Content,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}
