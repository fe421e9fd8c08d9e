package entity

import (
	"errors"
	"time"
)

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// ErrRatingOutOfRange 评分超出范围
var ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

// Rating 评分实体，每个用户对每本书只能评分一次
type Rating struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID    string    `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:uk_ratings_book_user,priority:1"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:uk_ratings_book_user,priority:2"`
	Score     int       `json:"rating" gorm:"column:score;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Rating) TableName() string {
	return "ratings"
}

// NewRating 创建评分
func NewRating(bookID, userID string, score int) (*Rating, error) {
	if score < MinRatingScore || score > MaxRatingScore {
		return nil, ErrRatingOutOfRange
	}
	return &Rating{
		BookID:    bookID,
		UserID:    userID,
		Score:     score,
		CreatedAt: time.Now(),
	}, nil
}
