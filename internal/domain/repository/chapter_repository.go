// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"serial-story-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 追加章节
	// 同一本书的章节号已存在时返回 ErrDuplicateChapter，
	// 章节号不是 max+1（无章节时不是 0）时返回 ErrChapterOutOfOrder
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetLast 获取最近写入的章节，无章节时返回 nil, nil
	GetLast(ctx context.Context, bookID string) (*entity.Chapter, error)

	// GetByBookAndNum 根据书籍和章节号获取章节，不存在时返回 nil, nil
	GetByBookAndNum(ctx context.Context, bookID string, chapterNum int) (*entity.Chapter, error)

	// ListByBook 获取书籍章节列表（按章节号排序）
	ListByBook(ctx context.Context, bookID string) ([]*entity.Chapter, error)

	// CountByBook 统计章节数
	CountByBook(ctx context.Context, bookID string) (int64, error)

	// DeletePrologue 删除序章，返回是否有记录被删除
	DeletePrologue(ctx context.Context, bookID string) (bool, error)
}
