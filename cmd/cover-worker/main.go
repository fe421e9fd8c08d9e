// Package main 封面补生成 worker：消费 book.created 事件，为创建时封面失败的书籍补齐封面
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"serial-story-api/internal/config"
	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/infrastructure/messaging"
	"serial-story-api/internal/wire"
	apperrors "serial-story-api/pkg/errors"
	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName:    "cover-worker",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SampleRate:     cfg.Observability.Tracing.SampleRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	worker.Consumer.Handle(messaging.TypeBookCreated, coverHandler(worker.Stories))

	if err := worker.Consumer.Run(ctx); err != nil {
		logger.Error(ctx, "consumer exited with error", err)
		return
	}
	logger.Info(context.Background(), "cover worker exited")
}

// coverEnsurer 补生成封面
type coverEnsurer interface {
	EnsureCover(ctx context.Context, bookID string) (*entity.Book, error)
}

// coverHandler 已有封面或书籍已删除时直接确认；生成失败返回错误交由消费者重试
func coverHandler(stories coverEnsurer) messaging.Handler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.BookCreatedPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			logger.Warn(ctx, "invalid book.created payload", "message_id", msg.ID, "error", err.Error())
			return nil
		}
		if payload.HasImage || payload.BookID == "" {
			return nil
		}

		if _, err := stories.EnsureCover(ctx, payload.BookID); err != nil {
			if apperrors.IsNotFound(err) {
				logger.Info(ctx, "book deleted before cover backfill", "book_id", payload.BookID)
				return nil
			}
			return err
		}
		return nil
	}
}
