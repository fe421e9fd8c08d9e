// Package entity 定义领域实体
package entity

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyElements 要素缺少标题
var ErrEmptyElements = errors.New("book elements must have a title")

// BookElements 故事要素（创建书籍时一次性生成，之后不可修改）
type BookElements struct {
	Title      string `json:"title" gorm:"type:varchar(255);not null"`
	Genre      string `json:"genre" gorm:"type:varchar(255)"`
	Theme      string `json:"theme" gorm:"type:text"`
	Tone       string `json:"tone" gorm:"type:varchar(255)"`
	Setting    string `json:"setting" gorm:"type:text"`
	Characters string `json:"characters" gorm:"type:text"`
}

// Validate 校验要素
func (e BookElements) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyElements
	}
	return nil
}

// ImagePrompt 封面生成提示词
func (e BookElements) ImagePrompt() string {
	return e.Title + ", " + e.Tone + ", " + e.Setting
}

// RefreshImagePrompt 重新生成封面时使用的简短提示词
func (e BookElements) RefreshImagePrompt() string {
	return e.Title + ", " + e.Tone
}

// Book 书籍实体
type Book struct {
	ID        string       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID   string       `json:"owner_id" gorm:"type:uuid;index;not null"`
	Elements  BookElements `json:"elements" gorm:"embedded"`
	ImagePath string       `json:"image_path,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// NewBook 创建新书籍
func NewBook(ownerID string, elements BookElements) *Book {
	now := time.Now()
	return &Book{
		OwnerID:   ownerID,
		Elements:  elements,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy 检查书籍归属
func (b *Book) IsOwnedBy(userID string) bool {
	return userID != "" && b.OwnerID == userID
}

// HasImage 是否已有封面
func (b *Book) HasImage() bool {
	return b.ImagePath != ""
}

// BookSummary 列表展示用的书籍聚合信息
type BookSummary struct {
	Book          *Book    `json:"book"`
	OwnerNickname string   `json:"owner_nickname"`
	AverageRating *float64 `json:"average_rating"`
	TotalLikes    int64    `json:"total_likes"`
}
