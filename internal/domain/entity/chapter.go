// Package entity 定义领域实体
package entity

import (
	"errors"
	"strings"
	"time"
)

// PrologueNum 序章的章节号
const PrologueNum = 0

var (
	ErrNegativeChapterNum = errors.New("chapter number must not be negative")
	ErrEmptyChapter       = errors.New("chapter content must not be empty")
)

// Chapter 章节实体（写入后内容不可变）
type Chapter struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID     string    `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:uk_chapters_book_num,priority:1"`
	ChapterNum int       `json:"chapter_num" gorm:"not null;uniqueIndex:uk_chapters_book_num,priority:2"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(bookID string, chapterNum int, content string) *Chapter {
	return &Chapter{
		BookID:     bookID,
		ChapterNum: chapterNum,
		Content:    content,
		CreatedAt:  time.Now(),
	}
}

// IsPrologue 是否为序章
func (c *Chapter) IsPrologue() bool {
	return c.ChapterNum == PrologueNum
}

// Validate 校验章节
func (c *Chapter) Validate() error {
	if c.ChapterNum < 0 {
		return ErrNegativeChapterNum
	}
	if strings.TrimSpace(c.Content) == "" {
		return ErrEmptyChapter
	}
	return nil
}
