// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 追加章节
// 在同一事务内检查重复与连续性，并发写入同一章节号时由唯一索引兜底
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	err := getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&entity.Chapter{}).
			Where("book_id = ? AND chapter_num = ?", chapter.BookID, chapter.ChapterNum).
			Count(&exists).Error; err != nil {
			return fmt.Errorf("failed to check chapter existence: %w", err)
		}
		if exists > 0 {
			return repository.ErrDuplicateChapter
		}

		var maxNum *int
		if err := tx.Model(&entity.Chapter{}).
			Where("book_id = ?", chapter.BookID).
			Select("MAX(chapter_num)").
			Scan(&maxNum).Error; err != nil {
			return fmt.Errorf("failed to get max chapter num: %w", err)
		}
		if !isNextChapterNum(maxNum, chapter.ChapterNum) {
			return repository.ErrChapterOutOfOrder
		}

		if err := tx.Create(chapter).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return repository.ErrDuplicateChapter
			}
			return fmt.Errorf("failed to create chapter: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// isNextChapterNum 无章节时只能写入序章，否则必须是 max+1
func isNextChapterNum(maxNum *int, num int) bool {
	if maxNum == nil {
		return num == entity.PrologueNum
	}
	return num == *maxNum+1
}

// GetLast 获取最近写入的章节
func (r *ChapterRepository) GetLast(ctx context.Context, bookID string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetLast")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.Where("book_id = ?", bookID).
		Order("created_at DESC").
		Order("chapter_num DESC").
		First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get last chapter: %w", err)
	}
	return &chapter, nil
}

// GetByBookAndNum 根据书籍和章节号获取章节
func (r *ChapterRepository) GetByBookAndNum(ctx context.Context, bookID string, chapterNum int) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByBookAndNum")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.Where("book_id = ? AND chapter_num = ?", bookID, chapterNum).First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter by book and num: %w", err)
	}
	return &chapter, nil
}

// ListByBook 获取书籍章节列表
func (r *ChapterRepository) ListByBook(ctx context.Context, bookID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("book_id = ?", bookID).
		Order("chapter_num ASC").
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// CountByBook 统计章节数
func (r *ChapterRepository) CountByBook(ctx context.Context, bookID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Chapter{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}

// DeletePrologue 删除序章
func (r *ChapterRepository) DeletePrologue(ctx context.Context, bookID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.DeletePrologue")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Where("book_id = ? AND chapter_num = ?", bookID, entity.PrologueNum).Delete(&entity.Chapter{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return false, fmt.Errorf("failed to delete prologue: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
