package repository

import (
	"context"

	"serial-story-api/internal/domain/entity"
)

// RatingRepository 评分仓储接口
type RatingRepository interface {
	// Create 创建评分，重复评分返回 ErrAlreadyRated
	Create(ctx context.Context, rating *entity.Rating) error
	// GetByBookAndUser 获取用户对书籍的评分
	GetByBookAndUser(ctx context.Context, bookID, userID string) (*entity.Rating, error)
}

// LikeRepository 点赞仓储接口
type LikeRepository interface {
	// Toggle 切换点赞状态
	Toggle(ctx context.Context, bookID, userID string) (*entity.LikeState, error)
	// State 获取点赞状态，userID 为空时 Liked 恒为 false
	State(ctx context.Context, bookID, userID string) (*entity.LikeState, error)
}

// CommentRepository 评论仓储接口
type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	Update(ctx context.Context, comment *entity.Comment) error
	Delete(ctx context.Context, id string) error
	// ListByBook 按创建时间正序列出评论
	ListByBook(ctx context.Context, bookID string, pagination Pagination) (*PagedResult[*entity.Comment], error)
}
