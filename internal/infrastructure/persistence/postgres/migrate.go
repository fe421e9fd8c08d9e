package postgres

import (
	"context"
	"fmt"

	"serial-story-api/internal/domain/entity"
)

// Models 需要迁移的全部模型
func Models() []any {
	return []any{
		&entity.User{},
		&entity.Book{},
		&entity.Chapter{},
		&entity.Rating{},
		&entity.BookLike{},
		&entity.Comment{},
	}
}

// Migrate 执行表结构迁移
// chapters 上的 (book_id, chapter_num) 唯一索引由实体标签创建
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.Migrate")
	defer span.End()

	db := c.db.WithContext(ctx)
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
