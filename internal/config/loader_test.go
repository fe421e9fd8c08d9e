package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("STORY_TEST_KEY", "from-env")

	tests := []struct {
		in   string
		want string
	}{
		{"key: ${STORY_TEST_KEY}", "key: from-env"},
		{"key: ${STORY_TEST_KEY:fallback}", "key: from-env"},
		{"key: ${STORY_TEST_MISSING:fallback}", "key: fallback"},
		{"key: ${STORY_TEST_MISSING:}", "key: "},
		{"key: ${STORY_TEST_MISSING}", "key: ${STORY_TEST_MISSING}"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Fatalf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFromAppliesDefaultsAndFiles(t *testing.T) {
	dir := t.TempDir()
	base := `
story:
  native_language: KO
  require_image: true
translation:
  deepl:
    api_key: ${STORY_TEST_DEEPL_KEY:none}
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(base), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	override := `
story:
  generation_timeout: 45s
`
	if err := os.WriteFile(filepath.Join(dir, "config.testing.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write env config: %v", err)
	}
	t.Setenv("APP_ENV", "testing")
	t.Setenv("STORY_TEST_DEEPL_KEY", "secret-key")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Story.NativeLanguage != "KO" {
		t.Fatalf("NativeLanguage = %q, want KO", cfg.Story.NativeLanguage)
	}
	if !cfg.Story.RequireImage {
		t.Fatalf("RequireImage should be true")
	}
	if cfg.Story.GenerationTimeout != 45*time.Second {
		t.Fatalf("GenerationTimeout = %v, want 45s", cfg.Story.GenerationTimeout)
	}
	if cfg.Story.TranslationTimeout != 20*time.Second {
		t.Fatalf("TranslationTimeout default = %v, want 20s", cfg.Story.TranslationTimeout)
	}
	if cfg.Translation.DeepL.APIKey != "secret-key" {
		t.Fatalf("DeepL.APIKey = %q", cfg.Translation.DeepL.APIKey)
	}
	if cfg.Server.HTTP.Port != 8080 {
		t.Fatalf("HTTP.Port = %d, want default 8080", cfg.Server.HTTP.Port)
	}
}

func TestLoadFromMissingDirUsesDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.App.Name != "serial-story-api" {
		t.Fatalf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Story.CoverSize != "1024x1024" || cfg.Story.RefreshSize != "512x512" {
		t.Fatalf("unexpected image sizes: %q / %q", cfg.Story.CoverSize, cfg.Story.RefreshSize)
	}
}
