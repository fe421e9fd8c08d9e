// Package image 提供封面图片生成与存储
package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"serial-story-api/internal/config"
	"serial-story-api/pkg/metrics"
)

var tracer = otel.Tracer("image")

// ErrEmptyImage 服务端未返回图片数据
var ErrEmptyImage = errors.New("image provider returned no data")

// OpenAIGenerator 基于 OpenAI Images API 的图片生成器
type OpenAIGenerator struct {
	client     openai.Client
	model      string
	smallModel string
	quality    string
}

// NewOpenAIGenerator 创建图片生成器
func NewOpenAIGenerator(cfg config.OpenAIImageConfig) *OpenAIGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	smallModel := cfg.SmallModel
	if smallModel == "" {
		smallModel = string(openai.ImageModelDallE2)
	}

	return &OpenAIGenerator{
		client:     openai.NewClient(opts...),
		model:      model,
		smallModel: smallModel,
		quality:    cfg.Quality,
	}
}

// Generate 按描述生成一张指定尺寸的图片，返回 PNG 字节
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, size string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "openai.GenerateImage",
		trace.WithAttributes(attribute.String("image.size", size)))
	defer span.End()

	start := time.Now()
	data, err := g.generate(ctx, prompt, size)
	metrics.ImageGenerationDuration.WithLabelValues(size).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.ImageGenerationTotal.WithLabelValues(size, "error").Inc()
		return nil, err
	}
	metrics.ImageGenerationTotal.WithLabelValues(size, "success").Inc()
	return data, nil
}

func (g *OpenAIGenerator) generate(ctx context.Context, prompt, size string) ([]byte, error) {
	model := g.modelFor(size)
	params := openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(model),
		Size:           openai.ImageGenerateParamsSize(size),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	}
	// dall-e-2 不接受 quality 参数
	if g.quality != "" && model != string(openai.ImageModelDallE2) {
		params.Quality = openai.ImageGenerateParamsQuality(g.quality)
	}

	resp, err := g.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai image generation failed: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, nil
}

func (g *OpenAIGenerator) modelFor(size string) string {
	switch strings.TrimSpace(size) {
	case string(openai.ImageGenerateParamsSize256x256), string(openai.ImageGenerateParamsSize512x512):
		return g.smallModel
	default:
		return g.model
	}
}
