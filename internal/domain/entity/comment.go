package entity

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyComment 评论内容为空
var ErrEmptyComment = errors.New("comment content must not be empty")

// Comment 评论实体
type Comment struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID    string    `json:"book_id" gorm:"type:uuid;index;not null"`
	UserID    string    `json:"user_id" gorm:"type:uuid;index;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// NewComment 创建评论
func NewComment(bookID, userID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	now := time.Now()
	return &Comment{
		BookID:    bookID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetContent 修改评论内容
func (c *Comment) SetContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyComment
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	return nil
}

// IsAuthoredBy 检查评论作者
func (c *Comment) IsAuthoredBy(userID string) bool {
	return userID != "" && c.UserID == userID
}
