// Package messaging 提供基于 Redis Stream 的领域事件发布
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/metrics"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, stream string, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 10000
	}
	if stream == "" {
		stream = "story:events"
	}
	return &Producer{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish 发布消息
func (p *Producer) Publish(ctx context.Context, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", p.stream),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type": msg.Type,
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		metrics.RedisStreamPublished.WithLabelValues(p.stream, "error").Inc()
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RedisStreamPublished.WithLabelValues(p.stream, "success").Inc()
	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// BookCreated 发布书籍创建事件（尽力而为，失败仅记录日志）
func (p *Producer) BookCreated(ctx context.Context, book *entity.Book) {
	msg, err := NewMessage(book.ID, TypeBookCreated, book.ID, &BookCreatedPayload{
		BookID:   book.ID,
		OwnerID:  book.OwnerID,
		Title:    book.Elements.Title,
		HasImage: book.HasImage(),
	})
	if err == nil {
		_, err = p.Publish(ctx, msg)
	}
	if err != nil {
		logger.Warn(ctx, "failed to publish book.created", "book_id", book.ID, "error", err)
	}
}

// ChapterCreated 发布章节创建事件（尽力而为，失败仅记录日志）
func (p *Producer) ChapterCreated(ctx context.Context, chapter *entity.Chapter) {
	msg, err := NewMessage(chapter.ID, TypeChapterCreated, chapter.BookID, &ChapterCreatedPayload{
		ChapterID:  chapter.ID,
		BookID:     chapter.BookID,
		ChapterNum: chapter.ChapterNum,
		Length:     len([]rune(chapter.Content)),
	})
	if err == nil {
		msg.SetMetadata("chapter_num", fmt.Sprintf("%d", chapter.ChapterNum))
		_, err = p.Publish(ctx, msg)
	}
	if err != nil {
		logger.Warn(ctx, "failed to publish chapter.created", "book_id", chapter.BookID, "error", err)
	}
}

// NoopPublisher 关闭事件流时使用
type NoopPublisher struct{}

func (NoopPublisher) BookCreated(context.Context, *entity.Book)       {}
func (NoopPublisher) ChapterCreated(context.Context, *entity.Chapter) {}
