package story

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"serial-story-api/internal/domain/entity"
	apperrors "serial-story-api/pkg/errors"
	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/metrics"
)

// present 将原文翻译为目标语言
// 目标语言与原始语言相同时直接返回；失败时返回原文与 TranslationService 错误
func (s *Service) present(ctx context.Context, text, lang string) (string, error) {
	if strings.EqualFold(lang, s.opts.NativeLanguage) {
		metrics.TranslationTotal.WithLabelValues(lang, "passthrough").Inc()
		return text, nil
	}
	if s.translator == nil {
		return text, apperrors.ErrTranslationService.WithDetail("translator not configured")
	}

	tctx, cancel := context.WithTimeout(ctx, s.opts.TranslationTimeout)
	defer cancel()

	translated, err := s.translator.Translate(tctx, text, lang)
	if err != nil {
		logger.Warn(ctx, "translation failed, returning source text",
			"target_lang", lang,
			"error", err.Error(),
		)
		return text, apperrors.ErrTranslationService.WithError(err)
	}
	return translated, nil
}

// presentElements 翻译要素用于展示，不修改持久化的原文
// 任一字段失败则整体回退为原文
func (s *Service) presentElements(ctx context.Context, elements entity.BookElements, lang string) (entity.BookElements, error) {
	if strings.EqualFold(lang, s.opts.NativeLanguage) {
		metrics.TranslationTotal.WithLabelValues(lang, "passthrough").Inc()
		return elements, nil
	}

	out := elements
	fields := []struct {
		src string
		dst *string
	}{
		{elements.Title, &out.Title},
		{elements.Genre, &out.Genre},
		{elements.Theme, &out.Theme},
		{elements.Tone, &out.Tone},
		{elements.Setting, &out.Setting},
		{elements.Characters, &out.Characters},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fields {
		f := f
		g.Go(func() error {
			translated, err := s.present(gctx, f.src, lang)
			if err != nil {
				return err
			}
			*f.dst = translated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return elements, err
	}
	return out, nil
}
