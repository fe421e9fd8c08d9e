//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"serial-story-api/internal/application/story"
	"serial-story-api/internal/config"
	"serial-story-api/internal/domain/repository"
	"serial-story-api/internal/infrastructure/image"
	"serial-story-api/internal/infrastructure/llm"
	"serial-story-api/internal/infrastructure/persistence/postgres"
	"serial-story-api/internal/infrastructure/persistence/redis"
	"serial-story-api/internal/interfaces/http/handler"
	"serial-story-api/internal/interfaces/http/middleware"
	"serial-story-api/internal/interfaces/http/router"
	"serial-story-api/internal/workflow/chain"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		StorySet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeWorker 初始化封面补生成 worker
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		StorySet,
		ProvideConsumer,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewBookRepository,
	postgres.NewChapterRepository,
	postgres.NewRatingRepository,
	postgres.NewLikeRepository,
	postgres.NewCommentRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.BookRepository), new(*postgres.BookRepository)),
	wire.Bind(new(repository.ChapterRepository), new(*postgres.ChapterRepository)),
	wire.Bind(new(repository.RatingRepository), new(*postgres.RatingRepository)),
	wire.Bind(new(repository.LikeRepository), new(*postgres.LikeRepository)),
	wire.Bind(new(repository.CommentRepository), new(*postgres.CommentRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// StorySet 生成流水线提供者集合
var StorySet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideStoryChain,
	ProvideTranslator,
	ProvideEventPublisher,
	ProvideImageGenerator,
	ProvideImageStore,
	story.OptionsFromConfig,
	story.NewService,
	wire.Bind(new(story.ContentGenerator), new(*chain.StoryChain)),
	wire.Bind(new(story.ImageProvider), new(*image.OpenAIGenerator)),
	wire.Bind(new(story.ImageStore), new(*image.LocalStore)),
	wire.Bind(new(handler.StoryService), new(*story.Service)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideAuthConfig,
	ProvideHealthHandler,
	ProvideAuthHandler,
	handler.NewBookHandler,
	handler.NewChapterHandler,
	handler.NewSocialHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
