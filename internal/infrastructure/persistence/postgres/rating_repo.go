package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
)

// RatingRepository 评分仓储实现
type RatingRepository struct {
	client *Client
}

// NewRatingRepository 创建评分仓储
func NewRatingRepository(client *Client) *RatingRepository {
	return &RatingRepository{client: client}
}

// Create 创建评分
func (r *RatingRepository) Create(ctx context.Context, rating *entity.Rating) error {
	ctx, span := tracer.Start(ctx, "postgres.RatingRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(rating).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrAlreadyRated
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// GetByBookAndUser 获取用户评分
func (r *RatingRepository) GetByBookAndUser(ctx context.Context, bookID, userID string) (*entity.Rating, error) {
	ctx, span := tracer.Start(ctx, "postgres.RatingRepository.GetByBookAndUser")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var rating entity.Rating
	if err := db.First(&rating, "book_id = ? AND user_id = ?", bookID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return &rating, nil
}

// LikeRepository 点赞仓储实现
type LikeRepository struct {
	client *Client
}

// NewLikeRepository 创建点赞仓储
func NewLikeRepository(client *Client) *LikeRepository {
	return &LikeRepository{client: client}
}

// Toggle 切换点赞状态
func (r *LikeRepository) Toggle(ctx context.Context, bookID, userID string) (*entity.LikeState, error) {
	ctx, span := tracer.Start(ctx, "postgres.LikeRepository.Toggle")
	defer span.End()

	var state *entity.LikeState
	err := getDB(ctx, r.client.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("book_id = ? AND user_id = ?", bookID, userID).Delete(&entity.BookLike{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove like: %w", result.Error)
		}
		liked := false
		if result.RowsAffected == 0 {
			like := &entity.BookLike{BookID: bookID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
				return fmt.Errorf("failed to add like: %w", err)
			}
			liked = true
		}

		var total int64
		if err := tx.Model(&entity.BookLike{}).Where("book_id = ?", bookID).Count(&total).Error; err != nil {
			return fmt.Errorf("failed to count likes: %w", err)
		}
		state = &entity.LikeState{TotalLikes: total, Liked: liked}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return state, nil
}

// State 获取点赞状态
func (r *LikeRepository) State(ctx context.Context, bookID, userID string) (*entity.LikeState, error) {
	ctx, span := tracer.Start(ctx, "postgres.LikeRepository.State")
	defer span.End()

	db := getDB(ctx, r.client.db)
	state := &entity.LikeState{}
	if err := db.Model(&entity.BookLike{}).Where("book_id = ?", bookID).Count(&state.TotalLikes).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	if userID != "" {
		var n int64
		if err := db.Model(&entity.BookLike{}).Where("book_id = ? AND user_id = ?", bookID, userID).Count(&n).Error; err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to check like: %w", err)
		}
		state.Liked = n > 0
	}
	return state, nil
}
