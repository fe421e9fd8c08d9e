package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Translator 文本翻译接口
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Cache 读穿缓存
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) ([]byte, error)
}

// CachedTranslator 以 (目标语言, 原文) 为键缓存翻译结果
type CachedTranslator struct {
	next  Translator
	cache Cache
	ttl   time.Duration
}

// NewCachedTranslator 创建带缓存的翻译器
func NewCachedTranslator(next Translator, cache Cache, ttl time.Duration) *CachedTranslator {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &CachedTranslator{next: next, cache: cache, ttl: ttl}
}

// Translate 先查缓存，未命中时调用下游翻译器
func (t *CachedTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	b, err := t.cache.GetOrLoad(ctx, cacheKey(text, targetLang), t.ttl, func(ctx context.Context) (interface{}, error) {
		return t.next.Translate(ctx, text, targetLang)
	})
	if err != nil {
		return "", err
	}

	var translated string
	if err := json.Unmarshal(b, &translated); err != nil {
		return "", fmt.Errorf("failed to decode cached translation: %w", err)
	}
	return translated, nil
}

func cacheKey(text, targetLang string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translation:%s:%s", strings.ToUpper(strings.TrimSpace(targetLang)), hex.EncodeToString(sum[:]))
}
