package dto

import (
	"time"

	"serial-story-api/internal/application/story"
	"serial-story-api/internal/domain/entity"
)

// ImageURLFunc 将封面存储路径转换为访问地址
type ImageURLFunc func(book *entity.Book) string

// CreateBookRequest 创建书籍请求
type CreateBookRequest struct {
	Prompt   string `json:"prompt" binding:"required,max=4000"`
	Language string `json:"language" binding:"omitempty,max=16"`
}

// ElementsDTO 故事要素
type ElementsDTO struct {
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	Theme      string `json:"theme"`
	Tone       string `json:"tone"`
	Setting    string `json:"setting"`
	Characters string `json:"characters"`
}

// CreateBookResponse 创建书籍响应
type CreateBookResponse struct {
	BookID   string       `json:"book_id"`
	Content  *ElementsDTO `json:"content"`
	Language string       `json:"language"`
	ImageURL string       `json:"image_url,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// BookResponse 书籍详情 / 列表项
type BookResponse struct {
	ElementsDTO

	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	OwnerNickname string        `json:"owner_nickname,omitempty"`
	ImageURL      string        `json:"image_url,omitempty"`
	AverageRating *float64      `json:"average_rating"`
	TotalLikes    int64         `json:"total_likes"`
	CreatedAt     time.Time     `json:"created_at"`
	Chapters      []*ChapterDTO `json:"chapters,omitempty"`
}

// BookListResponse 书籍列表
type BookListResponse struct {
	Items []*BookResponse `json:"items"`
}

// ImageResponse 封面重新生成结果
type ImageResponse struct {
	BookID   string `json:"book_id"`
	ImageURL string `json:"image_url"`
}

// ToElementsDTO 要素转换
func ToElementsDTO(e entity.BookElements) ElementsDTO {
	return ElementsDTO{
		Title:      e.Title,
		Genre:      e.Genre,
		Theme:      e.Theme,
		Tone:       e.Tone,
		Setting:    e.Setting,
		Characters: e.Characters,
	}
}

// ToCreateBookResponse 创建结果转换为响应
func ToCreateBookResponse(res *story.CreateBookResult) *CreateBookResponse {
	content := ToElementsDTO(res.Content)
	return &CreateBookResponse{
		BookID:   res.Book.ID,
		Content:  &content,
		Language: res.Language,
		ImageURL: res.ImageURL,
		Warnings: res.Warnings,
	}
}

// ToBookResponse 聚合信息转换为响应
func ToBookResponse(s *entity.BookSummary, imageURL ImageURLFunc) *BookResponse {
	if s == nil || s.Book == nil {
		return nil
	}
	resp := &BookResponse{
		ID:            s.Book.ID,
		UserID:        s.Book.OwnerID,
		OwnerNickname: s.OwnerNickname,
		ElementsDTO:   ToElementsDTO(s.Book.Elements),
		AverageRating: s.AverageRating,
		TotalLikes:    s.TotalLikes,
		CreatedAt:     s.Book.CreatedAt,
	}
	if imageURL != nil {
		resp.ImageURL = imageURL(s.Book)
	}
	return resp
}

// ToBookListResponse 列表转换
func ToBookListResponse(items []*entity.BookSummary, imageURL ImageURLFunc) *BookListResponse {
	out := make([]*BookResponse, 0, len(items))
	for _, s := range items {
		if r := ToBookResponse(s, imageURL); r != nil {
			out = append(out, r)
		}
	}
	return &BookListResponse{Items: out}
}
