package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/metrics"
)

// errMalformed 消息无法解析，直接确认丢弃
var errMalformed = errors.New("malformed stream message")

// Handler 消息处理函数，返回错误时消息保留在 pending 中等待重试
type Handler func(ctx context.Context, msg *Message) error

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream       string
	Group        string
	Name         string
	BlockTimeout time.Duration
	RetryLimit   int
	RetryIdle    time.Duration
}

// Consumer 基于消费者组的 Redis Stream 消费者
type Consumer struct {
	client *redis.Client
	cfg    ConsumerConfig

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewConsumer 创建消费者
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	if cfg.Stream == "" {
		cfg.Stream = "story:events"
	}
	if cfg.Group == "" {
		cfg.Group = "cover-worker"
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Group
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = 5 * time.Second
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.RetryIdle <= 0 {
		cfg.RetryIdle = time.Minute
	}
	return &Consumer{
		client:   client,
		cfg:      cfg,
		handlers: make(map[string]Handler),
	}
}

// Handle 注册消息类型处理器；未注册的类型直接确认
func (c *Consumer) Handle(msgType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = h
}

// DLQStream 死信流名称
func (c *Consumer) DLQStream() string {
	return c.cfg.Stream + ":dlq"
}

// Run 阻塞消费直到 ctx 取消
func (c *Consumer) Run(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger.Info(ctx, "consumer started",
		"stream", c.cfg.Stream,
		"group", c.cfg.Group,
		"consumer", c.cfg.Name,
	)

	lastRetry := time.Time{}
	for {
		if ctx.Err() != nil {
			logger.Info(ctx, "consumer stopped")
			return nil
		}

		if time.Since(lastRetry) >= c.cfg.RetryIdle/2 {
			c.retryPending(ctx)
			lastRetry = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Name,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    10,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			logger.Error(ctx, "failed to read from stream", err, "stream", c.cfg.Stream)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, xmsg := range stream.Messages {
				c.process(ctx, xmsg)
			}
		}
	}
}

// process 处理单条消息并决定确认、重试或移入死信流
func (c *Consumer) process(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := tracer.Start(ctx, "consumer.process",
		trace.WithAttributes(
			attribute.String("stream", c.cfg.Stream),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	msg, err := c.dispatch(ctx, xmsg)
	msgType := "unknown"
	if msg != nil {
		msgType = msg.Type
	}

	switch {
	case err == nil:
		metrics.RedisStreamConsumed.WithLabelValues(c.cfg.Stream, msgType, "success").Inc()
		c.ack(ctx, xmsg.ID)
	case errors.Is(err, errMalformed):
		logger.Warn(ctx, "dropping malformed message", "message_id", xmsg.ID, "error", err.Error())
		metrics.RedisStreamConsumed.WithLabelValues(c.cfg.Stream, msgType, "malformed").Inc()
		c.ack(ctx, xmsg.ID)
	default:
		span.RecordError(err)
		metrics.RedisStreamConsumed.WithLabelValues(c.cfg.Stream, msgType, "error").Inc()

		deliveries := c.deliveryCount(ctx, xmsg.ID)
		if deliveries < c.cfg.RetryLimit {
			logger.Warn(ctx, "handler failed, message left pending for retry",
				"message_id", xmsg.ID, "deliveries", deliveries, "error", err.Error())
			return
		}
		logger.Error(ctx, "message moved to DLQ after max retries", err,
			"message_id", xmsg.ID, "deliveries", deliveries)
		c.moveToDLQ(ctx, xmsg, err)
		c.ack(ctx, xmsg.ID)
	}
}

// dispatch 解析消息并调用对应处理器
func (c *Consumer) dispatch(ctx context.Context, xmsg redis.XMessage) (*Message, error) {
	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing data field", errMalformed)
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	if msg.BookID != "" {
		ctx = logger.WithContext(ctx, logger.BookIDKey, msg.BookID)
	}
	if reqID := msg.Metadata["request_id"]; reqID != "" {
		ctx = logger.WithContext(ctx, logger.RequestIDKey, reqID)
	}

	c.mu.RLock()
	h, exists := c.handlers[msg.Type]
	c.mu.RUnlock()
	if !exists {
		logger.Debug(ctx, "no handler for message type", "type", msg.Type)
		return &msg, nil
	}
	return &msg, h(ctx, &msg)
}

// retryPending 重新认领闲置超过 RetryIdle 的失败消息（包括已下线消费者遗留的）
func (c *Consumer) retryPending(ctx context.Context) {
	claimed, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		MinIdle:  c.cfg.RetryIdle,
		Start:    "0-0",
		Count:    20,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Error(ctx, "failed to claim pending messages", err, "stream", c.cfg.Stream)
		}
		return
	}
	for _, xmsg := range claimed {
		c.process(ctx, xmsg)
	}
}

// deliveryCount 通过 XPENDING 获取消息投递次数
func (c *Consumer) deliveryCount(ctx context.Context, id string) int {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return int(pending[0].RetryCount)
}

func (c *Consumer) moveToDLQ(ctx context.Context, xmsg redis.XMessage, cause error) {
	err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.DLQStream(),
		Values: map[string]interface{}{
			"original_id": xmsg.ID,
			"data":        xmsg.Values["data"],
			"error":       cause.Error(),
			"failed_at":   time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		logger.Error(ctx, "failed to write DLQ message", err, "message_id", xmsg.ID)
	}
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		logger.Error(ctx, "failed to ack message", err, "message_id", id)
	}
}
