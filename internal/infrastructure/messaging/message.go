// Package messaging 提供基于 Redis Stream 的领域事件发布
package messaging

import (
	"encoding/json"
	"time"
)

// 事件类型
const (
	TypeBookCreated    = "book.created"
	TypeChapterCreated = "chapter.created"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	BookID    string            `json:"book_id"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType, bookID string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		BookID:    bookID,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// BookCreatedPayload 书籍创建事件
type BookCreatedPayload struct {
	BookID   string `json:"book_id"`
	OwnerID  string `json:"owner_id"`
	Title    string `json:"title"`
	HasImage bool   `json:"has_image"`
}

// ChapterCreatedPayload 章节创建事件
type ChapterCreatedPayload struct {
	ChapterID  string `json:"chapter_id"`
	BookID     string `json:"book_id"`
	ChapterNum int    `json:"chapter_num"`
	Length     int    `json:"length"`
}
