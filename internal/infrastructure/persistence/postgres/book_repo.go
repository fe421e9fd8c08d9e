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

// bookSummaryRow 列表查询的扫描行
type bookSummaryRow struct {
	entity.Book   `gorm:"embedded"`
	OwnerNickname string
	AverageRating *float64
	TotalLikes    int64
}

func (row *bookSummaryRow) toSummary() *entity.BookSummary {
	book := row.Book
	return &entity.BookSummary{
		Book:          &book,
		OwnerNickname: row.OwnerNickname,
		AverageRating: roundRating(row.AverageRating),
		TotalLikes:    row.TotalLikes,
	}
}

// roundRating 平均分保留一位小数
func roundRating(avg *float64) *float64 {
	if avg == nil {
		return nil
	}
	v := float64(int64(*avg*10+0.5)) / 10
	return &v
}

const bookSummarySelect = `books.*,
	COALESCE(users.nickname, '') AS owner_nickname,
	(SELECT AVG(ratings.score) FROM ratings WHERE ratings.book_id = books.id) AS average_rating,
	(SELECT COUNT(*) FROM book_likes WHERE book_likes.book_id = books.id) AS total_likes`

// BookRepository 书籍仓储实现
type BookRepository struct {
	client *Client
}

// NewBookRepository 创建书籍仓储
func NewBookRepository(client *Client) *BookRepository {
	return &BookRepository{client: client}
}

// Create 创建书籍
func (r *BookRepository) Create(ctx context.Context, book *entity.Book) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(book).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取书籍
func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var book entity.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

func (r *BookRepository) summaryQuery(db *gorm.DB) *gorm.DB {
	return db.Table("books").
		Select(bookSummarySelect).
		Joins("LEFT JOIN users ON users.id = books.owner_id")
}

// GetSummary 获取书籍聚合信息
func (r *BookRepository) GetSummary(ctx context.Context, id string) (*entity.BookSummary, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.GetSummary")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rows []bookSummaryRow
	if err := r.summaryQuery(db).Where("books.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book summary: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toSummary(), nil
}

// ListSummaries 列出书籍（按创建时间倒序）
func (r *BookRepository) ListSummaries(ctx context.Context, filter *repository.BookFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.BookSummary], error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.ListSummaries")
	defer span.End()

	db := getDB(ctx, r.client.db)
	base := db.Model(&entity.Book{})
	if filter != nil {
		if filter.OwnerID != "" {
			base = base.Where("books.owner_id = ?", filter.OwnerID)
		}
		if filter.LikedBy != "" {
			base = base.Where("books.id IN (?)",
				db.Model(&entity.BookLike{}).Select("book_id").Where("user_id = ?", filter.LikedBy))
		}
	}

	// 获取总数
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	// 获取列表
	var rows []bookSummaryRow
	if err := r.summaryQuery(base.Session(&gorm.Session{})).
		Order("books.created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	items := make([]*entity.BookSummary, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toSummary())
	}
	return repository.NewPagedResult(items, total, pagination), nil
}

// UpdateImage 更新封面
func (r *BookRepository) UpdateImage(ctx context.Context, id, imagePath string) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.UpdateImage")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Book{}).Where("id = ?", id).Update("image_path", imagePath).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update book image: %w", err)
	}
	return nil
}

// Delete 删除书籍及其关联数据
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.Delete")
	defer span.End()

	err := getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entity.Chapter{}, &entity.Rating{}, &entity.BookLike{}, &entity.Comment{}} {
			if err := tx.Where("book_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete book children: %w", err)
			}
		}
		if err := tx.Delete(&entity.Book{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
