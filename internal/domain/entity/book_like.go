package entity

import "time"

// BookLike 点赞关系
type BookLike struct {
	BookID    string    `json:"book_id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (BookLike) TableName() string {
	return "book_likes"
}

// LikeState 点赞状态
type LikeState struct {
	TotalLikes int64 `json:"total_likes"`
	Liked      bool  `json:"like_bool"`
}
