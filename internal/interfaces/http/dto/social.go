package dto

import (
	"time"

	"serial-story-api/internal/domain/entity"
)

// LikeResponse 点赞状态
type LikeResponse struct {
	BookID     string `json:"book_id"`
	TotalLikes int64  `json:"total_likes"`
	Liked      bool   `json:"like_bool"`
}

// RateRequest 评分请求
type RateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// RatingResponse 评分
type RatingResponse struct {
	BookID    string    `json:"book_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentRequest 创建 / 修改评论请求
type CommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// CommentResponse 评论
type CommentResponse struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentListResponse 评论列表
type CommentListResponse struct {
	Items []*CommentResponse `json:"items"`
}

// ToLikeResponse 点赞状态转换
func ToLikeResponse(bookID string, s *entity.LikeState) *LikeResponse {
	return &LikeResponse{BookID: bookID, TotalLikes: s.TotalLikes, Liked: s.Liked}
}

// ToRatingResponse 评分转换
func ToRatingResponse(r *entity.Rating) *RatingResponse {
	return &RatingResponse{BookID: r.BookID, Rating: r.Score, CreatedAt: r.CreatedAt}
}

// ToCommentResponse 评论转换
func ToCommentResponse(c *entity.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        c.ID,
		BookID:    c.BookID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCommentListResponse 评论列表转换
func ToCommentListResponse(items []*entity.Comment) *CommentListResponse {
	out := make([]*CommentResponse, 0, len(items))
	for _, c := range items {
		out = append(out, ToCommentResponse(c))
	}
	return &CommentListResponse{Items: out}
}
