// Package translation 提供基于 DeepL 的文本翻译
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"serial-story-api/internal/config"
	"serial-story-api/pkg/metrics"
)

var tracer = otel.Tracer("translation")

const defaultDeepLBaseURL = "https://api-free.deepl.com"

// StatusError DeepL 返回的非 2xx 响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepl returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable 429 与 5xx 可重试；456（额度用尽）与其他 4xx 不可重试
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type deeplRequest struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// DeepLClient DeepL REST 客户端
type DeepLClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxAttempts uint
	retryDelay  time.Duration
}

// NewDeepLClient 创建 DeepL 客户端
func NewDeepLClient(cfg config.DeepLConfig) *DeepLClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultDeepLBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &DeepLClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: uint(attempts),
		retryDelay:  cfg.RetryDelay,
	}
}

// Translate 将文本翻译为目标语言
func (c *DeepLClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	targetLang = strings.ToUpper(strings.TrimSpace(targetLang))

	ctx, span := tracer.Start(ctx, "deepl.Translate",
		trace.WithAttributes(
			attribute.String("translation.target_lang", targetLang),
			attribute.Int("translation.length", len(text)),
		))
	defer span.End()

	var translated string
	err := retry.Do(
		func() error {
			out, err := c.translateOnce(ctx, text, targetLang)
			if err != nil {
				return err
			}
			translated = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		span.RecordError(err)
		metrics.TranslationTotal.WithLabelValues(targetLang, "error").Inc()
		return "", err
	}

	metrics.TranslationTotal.WithLabelValues(targetLang, "success").Inc()
	return translated, nil
}

func (c *DeepLClient) translateOnce(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal(deeplRequest{Text: []string{text}, TargetLang: targetLang})
	if err != nil {
		return "", fmt.Errorf("failed to marshal deepl request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build deepl request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepl request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read deepl response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out deeplResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", retry.Unrecoverable(fmt.Errorf("failed to decode deepl response: %w", err))
	}
	if len(out.Translations) == 0 {
		return "", retry.Unrecoverable(errors.New("deepl returned no translations"))
	}
	return out.Translations[0].Text, nil
}

// isRetryable 网络错误与 429/5xx 重试，上下文取消不重试
func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
