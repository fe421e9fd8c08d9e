// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"serial-story-api/internal/domain/entity"
)

// BookFilter 书籍过滤条件
type BookFilter struct {
	// OwnerID 只返回该用户创建的书籍
	OwnerID string
	// LikedBy 只返回该用户点赞过的书籍
	LikedBy string
}

// BookRepository 书籍仓储接口
type BookRepository interface {
	// Create 创建书籍（要素与封面一次写入）
	Create(ctx context.Context, book *entity.Book) error

	// GetByID 根据 ID 获取书籍，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Book, error)

	// GetSummary 获取书籍及作者昵称、平均评分、点赞数
	GetSummary(ctx context.Context, id string) (*entity.BookSummary, error)

	// ListSummaries 按创建时间倒序列出书籍
	ListSummaries(ctx context.Context, filter *BookFilter, pagination Pagination) (*PagedResult[*entity.BookSummary], error)

	// UpdateImage 更新封面路径
	UpdateImage(ctx context.Context, id, imagePath string) error

	// Delete 删除书籍及其章节、评分、点赞、评论
	Delete(ctx context.Context, id string) error
}
