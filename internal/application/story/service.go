// Package story 实现连载故事的生成流水线：要素 -> 序章 -> 编号章节
package story

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"serial-story-api/internal/config"
	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
	apperrors "serial-story-api/pkg/errors"
	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/metrics"
	"serial-story-api/pkg/tracer"
)

// Options 流水线参数
type Options struct {
	NativeLanguage     string
	DefaultLanguage    string
	GenerationTimeout  time.Duration
	TranslationTimeout time.Duration
	ImageTimeout       time.Duration
	CoverSize          string
	RefreshSize        string
	RequireImage       bool
}

// OptionsFromConfig 从配置构建参数，缺省值与配置默认值一致
func OptionsFromConfig(cfg *config.Config) Options {
	o := Options{
		NativeLanguage:     cfg.Story.NativeLanguage,
		DefaultLanguage:    cfg.Story.DefaultLanguage,
		GenerationTimeout:  cfg.Story.GenerationTimeout,
		TranslationTimeout: cfg.Story.TranslationTimeout,
		ImageTimeout:       cfg.Story.ImageTimeout,
		CoverSize:          cfg.Story.CoverSize,
		RefreshSize:        cfg.Story.RefreshSize,
		RequireImage:       cfg.Story.RequireImage,
	}
	return o.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.NativeLanguage == "" {
		o.NativeLanguage = "EN-US"
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = o.NativeLanguage
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = 180 * time.Second
	}
	if o.TranslationTimeout <= 0 {
		o.TranslationTimeout = 20 * time.Second
	}
	if o.ImageTimeout <= 0 {
		o.ImageTimeout = 90 * time.Second
	}
	if o.CoverSize == "" {
		o.CoverSize = "1024x1024"
	}
	if o.RefreshSize == "" {
		o.RefreshSize = "512x512"
	}
	return o
}

// Service 章节生成编排器
// 不在请求之间保存任何状态，阶段总是从存储重新推导
type Service struct {
	books      repository.BookRepository
	chapters   repository.ChapterRepository
	generator  ContentGenerator
	translator Translator
	images     ImageProvider
	store      ImageStore
	events     EventPublisher
	opts       Options
}

// NewService 创建编排器；translator、images、store、events 可为 nil
func NewService(
	books repository.BookRepository,
	chapters repository.ChapterRepository,
	generator ContentGenerator,
	translator Translator,
	images ImageProvider,
	store ImageStore,
	events EventPublisher,
	opts Options,
) *Service {
	return &Service{
		books:      books,
		chapters:   chapters,
		generator:  generator,
		translator: translator,
		images:     images,
		store:      store,
		events:     events,
		opts:       opts.withDefaults(),
	}
}

// GenerateNextChapter 解析下一阶段，生成并持久化章节，最后叠加翻译
func (s *Service) GenerateNextChapter(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	ctx = logger.WithContext(ctx, logger.BookIDKey, req.BookID)
	ctx, span := tracer.Start(ctx, "story.GenerateNextChapter",
		trace.WithAttributes(attribute.String("book.id", req.BookID)))
	defer span.End()

	book, err := s.loadBook(ctx, req.BookID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	if req.UserID != "" && !book.IsOwnedBy(req.UserID) {
		return nil, apperrors.ErrForbidden.WithDetail("only the author can continue this book")
	}

	stage, err := ResolveStage(ctx, s.chapters, book.ID)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to resolve chapter stage")
	}
	span.SetAttributes(
		attribute.String("story.stage", stage.Name()),
		attribute.Int("story.chapter_num", stage.ChapterNum()),
	)

	start := time.Now()
	result, err := s.generateAndStore(ctx, book, stage, req)
	metrics.StoryGenerationDuration.WithLabelValues(stage.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues(stage.Name(), statusOf(err)).Inc()
		tracer.RecordError(span, err)
		logger.Warn(ctx, "chapter generation failed",
			"stage", stage.Name(),
			"chapter_num", stage.ChapterNum(),
			"error", err.Error(),
		)
		return nil, err
	}
	metrics.StoryGenerationTotal.WithLabelValues(stage.Name(), "success").Inc()
	metrics.StoryContentLength.WithLabelValues(stage.Name()).Observe(float64(len([]rune(result.Content))))

	lang := s.language(req.TargetLanguage)
	result.Language = lang
	result.TranslatedContent, result.TranslationErr = s.present(ctx, result.Content, lang)
	if result.TranslationErr != nil {
		result.Warnings = append(result.Warnings, WarningTranslationUnavailable)
	}

	logger.Info(ctx, "chapter generated",
		"stage", stage.Name(),
		"chapter_num", result.ChapterNum,
		"recommendations", len(result.Recommendations),
		"language", lang,
	)
	return result, nil
}

// generateAndStore 调用生成器并写入一条章节记录；任何失败都不留下章节
func (s *Service) generateAndStore(ctx context.Context, book *entity.Book, stage Stage, req GenerationRequest) (*GenerationResult, error) {
	result := &GenerationResult{
		BookID:     book.ID,
		ChapterNum: stage.ChapterNum(),
		Stage:      stage.Name(),
	}

	switch st := stage.(type) {
	case PrologueStage:
		content, err := s.generatePrologue(ctx, book.Elements)
		if err != nil {
			return nil, err
		}
		result.Content = content
	case ChapterStage:
		payload, err := BuildChapterPayload(st, book.Elements, req)
		if err != nil {
			return nil, err
		}
		genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
		draft, err := s.generator.GenerateChapter(genCtx, payload)
		cancel()
		if err != nil {
			return nil, apperrors.ErrGenerationService.WithError(err)
		}
		if draft == nil {
			return nil, apperrors.ErrGenerationService.WithDetail("generator returned no chapter")
		}
		result.Content = draft.FinalSummary
		result.Recommendations = draft.Recommendations
	default:
		return nil, apperrors.ErrInternalError.WithDetail("unknown generation stage")
	}

	result.Content = strings.TrimSpace(result.Content)
	if result.Content == "" {
		return nil, apperrors.ErrGenerationService.WithDetail("generator returned empty content")
	}

	chapter := entity.NewChapter(book.ID, result.ChapterNum, result.Content)
	if err := chapter.Validate(); err != nil {
		return nil, apperrors.ErrPersistence.WithError(err)
	}
	if err := s.chapters.Create(ctx, chapter); err != nil {
		return nil, mapChapterWriteError(err)
	}

	if s.events != nil {
		s.events.ChapterCreated(ctx, chapter)
	}
	return result, nil
}

func (s *Service) generatePrologue(ctx context.Context, elements entity.BookElements) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	content, err := s.generator.GeneratePrologue(genCtx, elements)
	if err != nil {
		return "", apperrors.ErrGenerationService.WithError(err)
	}
	return content, nil
}

// CreateBook 生成要素和封面，一次写入书籍
func (s *Service) CreateBook(ctx context.Context, in CreateBookInput) (*CreateBookResult, error) {
	ctx, span := tracer.Start(ctx, "story.CreateBook")
	defer span.End()

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("prompt is required")
	}

	start := time.Now()
	elements, err := s.generateElements(ctx, prompt)
	metrics.StoryGenerationDuration.WithLabelValues("elements").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues("elements", statusOf(err)).Inc()
		tracer.RecordError(span, err)
		return nil, err
	}

	result := &CreateBookResult{Language: s.language(in.Language)}
	book := entity.NewBook(in.OwnerID, elements)

	imagePath, err := s.renderImage(ctx, elements.ImagePrompt(), s.opts.CoverSize)
	if err != nil {
		if s.opts.RequireImage {
			metrics.StoryGenerationTotal.WithLabelValues("elements", statusOf(err)).Inc()
			tracer.RecordError(span, err)
			return nil, err
		}
		logger.Warn(ctx, "cover image unavailable, creating book without image", "error", err.Error())
		result.ImageErr = err
		result.Warnings = append(result.Warnings, WarningImageUnavailable)
	}
	book.ImagePath = imagePath

	if err := s.books.Create(ctx, book); err != nil {
		if imagePath != "" && s.store != nil {
			_ = s.store.Delete(ctx, imagePath)
		}
		metrics.StoryGenerationTotal.WithLabelValues("elements", "persistence_error").Inc()
		tracer.RecordError(span, err)
		return nil, apperrors.ErrPersistence.WithError(err)
	}
	metrics.StoryGenerationTotal.WithLabelValues("elements", "success").Inc()

	if s.events != nil {
		s.events.BookCreated(ctx, book)
	}

	result.Book = book
	result.ImageURL = s.ImageURL(book)
	result.Content, result.TranslationErr = s.presentElements(ctx, elements, result.Language)
	if result.TranslationErr != nil {
		result.Warnings = append(result.Warnings, WarningTranslationUnavailable)
	}

	logger.Info(ctx, "book created",
		"book_id", book.ID,
		"title", elements.Title,
		"has_image", book.HasImage(),
	)
	return result, nil
}

func (s *Service) generateElements(ctx context.Context, prompt string) (entity.BookElements, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	elements, err := s.generator.GenerateElements(genCtx, prompt)
	if err != nil {
		return entity.BookElements{}, apperrors.ErrGenerationService.WithError(err)
	}
	if err := elements.Validate(); err != nil {
		return entity.BookElements{}, apperrors.ErrGenerationService.WithError(err)
	}
	return elements, nil
}

// renderImage 生成图片并写入存储，返回存储路径
func (s *Service) renderImage(ctx context.Context, prompt, size string) (string, error) {
	if s.images == nil || s.store == nil {
		return "", apperrors.ErrImageService.WithDetail("image provider not configured")
	}

	imgCtx, cancel := context.WithTimeout(ctx, s.opts.ImageTimeout)
	defer cancel()

	data, err := s.images.Generate(imgCtx, prompt, size)
	if err != nil {
		return "", apperrors.ErrImageService.WithError(err)
	}
	path, err := s.store.Save(ctx, data)
	if err != nil {
		return "", apperrors.ErrImageService.WithError(err)
	}
	return path, nil
}

// RefreshImage 以较小尺寸重新生成封面
func (s *Service) RefreshImage(ctx context.Context, bookID string) (*entity.Book, error) {
	ctx = logger.WithContext(ctx, logger.BookIDKey, bookID)

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := s.replaceImage(ctx, book, book.Elements.RefreshImagePrompt(), s.opts.RefreshSize); err != nil {
		return nil, err
	}
	return book, nil
}

// EnsureCover 为尚无封面的书籍补生成封面，已有封面时直接返回
// 创建书籍时封面失败（非强制模式）由后台 worker 调用补齐
func (s *Service) EnsureCover(ctx context.Context, bookID string) (*entity.Book, error) {
	ctx = logger.WithContext(ctx, logger.BookIDKey, bookID)

	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.HasImage() {
		return book, nil
	}
	if err := s.replaceImage(ctx, book, book.Elements.ImagePrompt(), s.opts.CoverSize); err != nil {
		return nil, err
	}
	logger.Info(ctx, "cover backfilled", "path", book.ImagePath)
	return book, nil
}

// replaceImage 生成新封面并更新书籍，成功后删除旧文件
func (s *Service) replaceImage(ctx context.Context, book *entity.Book, prompt, size string) error {
	start := time.Now()
	path, err := s.renderImage(ctx, prompt, size)
	metrics.StoryGenerationDuration.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues("image", statusOf(err)).Inc()
		return err
	}

	if err := s.books.UpdateImage(ctx, book.ID, path); err != nil {
		_ = s.store.Delete(ctx, path)
		metrics.StoryGenerationTotal.WithLabelValues("image", "persistence_error").Inc()
		return apperrors.ErrPersistence.WithError(err)
	}
	metrics.StoryGenerationTotal.WithLabelValues("image", "success").Inc()

	if old := book.ImagePath; old != "" && old != path {
		if err := s.store.Delete(ctx, old); err != nil {
			logger.Warn(ctx, "failed to remove previous cover", "path", old, "error", err.Error())
		}
	}
	book.ImagePath = path
	return nil
}

// DeletePrologue 删除序章（仅作者），后续章节保持原编号
func (s *Service) DeletePrologue(ctx context.Context, bookID, userID string) error {
	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return err
	}
	if !book.IsOwnedBy(userID) {
		return apperrors.ErrForbidden.WithDetail("only the author can delete the prologue")
	}

	deleted, err := s.chapters.DeletePrologue(ctx, book.ID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete prologue")
	}
	if !deleted {
		return apperrors.ErrChapterNotFound.WithDetail("book has no prologue")
	}
	logger.Info(ctx, "prologue deleted", "book_id", book.ID)
	return nil
}

// DeleteBook 删除书籍及其封面（仅作者）
func (s *Service) DeleteBook(ctx context.Context, bookID, userID string) error {
	book, err := s.loadBook(ctx, bookID)
	if err != nil {
		return err
	}
	if !book.IsOwnedBy(userID) {
		return apperrors.ErrForbidden.WithDetail("only the author can delete this book")
	}

	if err := s.books.Delete(ctx, book.ID); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete book")
	}
	if book.ImagePath != "" && s.store != nil {
		if err := s.store.Delete(ctx, book.ImagePath); err != nil {
			logger.Warn(ctx, "failed to remove cover", "path", book.ImagePath, "error", err.Error())
		}
	}
	return nil
}

// ImageURL 书籍封面的访问地址，无封面时为空
func (s *Service) ImageURL(book *entity.Book) string {
	if book == nil || book.ImagePath == "" || s.store == nil {
		return ""
	}
	return s.store.URL(book.ImagePath)
}

func (s *Service) loadBook(ctx context.Context, bookID string) (*entity.Book, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, apperrors.ErrBookNotFound
	}
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	return book, nil
}

func (s *Service) language(lang string) string {
	lang = strings.ToUpper(strings.TrimSpace(lang))
	if lang == "" {
		return strings.ToUpper(s.opts.DefaultLanguage)
	}
	return lang
}

// mapChapterWriteError 唯一约束冲突视为并发写入；顺序校验失败等其余错误视为存储拒绝
func mapChapterWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicateChapter) {
		return apperrors.ErrConcurrentModification.WithError(err)
	}
	return apperrors.ErrPersistence.WithError(err)
}

// statusOf 指标中的失败类型
func statusOf(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMissingContext):
		return "missing_context"
	case errors.Is(err, apperrors.ErrGenerationService):
		return "generation_error"
	case errors.Is(err, apperrors.ErrImageService):
		return "image_error"
	case errors.Is(err, apperrors.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, apperrors.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}
