package llm

import (
	"context"
	"strings"
	"testing"

	"serial-story-api/internal/config"
)

func TestEinoFactoryUnknownProvider(t *testing.T) {
	f := NewEinoFactory(&config.Config{LLM: config.LLMConfig{
		DefaultProvider: "openai",
		Providers:       map[string]config.ProviderConfig{},
	}})

	_, err := f.Get(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "provider openai not found") {
		t.Fatalf("Get(\"\") error = %v, want default provider lookup", err)
	}
	_, err = f.Get(context.Background(), " deepseek ")
	if err == nil || !strings.Contains(err.Error(), "provider deepseek not found") {
		t.Fatalf("Get(deepseek) error = %v", err)
	}
}
