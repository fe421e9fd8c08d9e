package wire

import (
	"context"
	"os"

	"serial-story-api/internal/application/story"
	"serial-story-api/internal/config"
	"serial-story-api/internal/infrastructure/image"
	"serial-story-api/internal/infrastructure/llm"
	"serial-story-api/internal/infrastructure/messaging"
	"serial-story-api/internal/infrastructure/persistence/postgres"
	"serial-story-api/internal/infrastructure/persistence/redis"
	"serial-story-api/internal/infrastructure/translation"
	"serial-story-api/internal/interfaces/http/handler"
	"serial-story-api/internal/interfaces/http/middleware"
	"serial-story-api/internal/workflow/chain"
	"serial-story-api/pkg/logger"
)

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient  *postgres.Client
	TxManager *postgres.TxManager
	UserRepo  *postgres.UserRepository
	BookRepo  *postgres.BookRepository
	// 以下仓储 bootstrap 未直接使用，保留以便与 API 共用同一集合
	ChapterRepo *postgres.ChapterRepository
	RatingRepo  *postgres.RatingRepository
	LikeRepo    *postgres.LikeRepository
	CommentRepo *postgres.CommentRepository
}

// Worker 后台 worker 依赖容器
type Worker struct {
	Consumer *messaging.Consumer
	Stories  *story.Service
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideEventPublisher 提供事件发布器，关闭 Redis Stream 时不发布
func ProvideEventPublisher(redisClient *redis.Client, cfg *config.Config) story.EventPublisher {
	streamCfg := cfg.Messaging.RedisStream
	if !streamCfg.Enabled {
		return messaging.NoopPublisher{}
	}
	maxLen := streamCfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	return messaging.NewProducer(redisClient.Redis(), streamCfg.Stream, int64(maxLen))
}

// ProvideStoryChain 提供要素 / 序章 / 章节生成链
func ProvideStoryChain(factory *llm.EinoFactory, cfg *config.Config) *chain.StoryChain {
	return chain.NewStoryChain(factory, cfg.Story.Provider)
}

// ProvideTranslator 提供带缓存的 DeepL 翻译器；未配置密钥时返回 nil，章节仍以原文返回
func ProvideTranslator(ctx context.Context, cfg *config.Config, cache *redis.Cache) story.Translator {
	if cfg.Translation.DeepL.APIKey == "" {
		logger.Warn(ctx, "deepl api key not configured, translation disabled")
		return nil
	}
	deepl := translation.NewDeepLClient(cfg.Translation.DeepL)
	return translation.NewCachedTranslator(deepl, cache, cfg.Translation.CacheTTL)
}

// ProvideImageGenerator 提供封面生成器
func ProvideImageGenerator(cfg *config.Config) *image.OpenAIGenerator {
	return image.NewOpenAIGenerator(cfg.Image.OpenAI)
}

// ProvideImageStore 提供封面文件存储
func ProvideImageStore(cfg *config.Config) *image.LocalStore {
	return image.NewLocalStore(cfg.Storage.Local)
}

// ProvideAuthConfig 提供认证配置
func ProvideAuthConfig(cfg *config.Config) middleware.AuthConfig {
	return middleware.AuthConfig{
		Secret: cfg.Security.JWT.Secret,
		Issuer: cfg.Security.JWT.Issuer,
	}
}

// ProvideAuthHandler 提供认证处理器
func ProvideAuthHandler(cfg *config.Config, authCfg middleware.AuthConfig, users *postgres.UserRepository) *handler.AuthHandler {
	return handler.NewAuthHandler(authCfg, cfg.Security.JWT.Expiration, users)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rds *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, map[string]handler.HealthChecker{
		"postgres": pg,
		"redis":    rds,
	})
}

// ProvideConsumer 提供事件流消费者，消费者名使用主机名以便多实例部署
func ProvideConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	streamCfg := cfg.Messaging.RedisStream
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = streamCfg.Group
	}
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:       streamCfg.Stream,
		Group:        streamCfg.Group,
		Name:         name,
		BlockTimeout: streamCfg.BlockTimeout,
		RetryLimit:   streamCfg.RetryLimit,
		RetryIdle:    streamCfg.RetryIdle,
	})
}
