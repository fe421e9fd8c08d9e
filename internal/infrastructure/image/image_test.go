package image

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"serial-story-api/internal/config"
)

func newImageServer(t *testing.T, wantModel string, payload []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["model"] != wantModel {
			t.Errorf("model = %v, want %s", body["model"], wantModel)
		}
		if body["response_format"] != "b64_json" {
			t.Errorf("response_format = %v", body["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"created": time.Now().Unix(),
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(payload)}},
		})
	}))
}

func TestOpenAIGeneratorCover(t *testing.T) {
	srv := newImageServer(t, "dall-e-3", []byte("png-bytes"))
	defer srv.Close()

	g := NewOpenAIGenerator(config.OpenAIImageConfig{
		APIKey:     "k",
		BaseURL:    srv.URL + "/v1/",
		Model:      "dall-e-3",
		SmallModel: "dall-e-2",
		Quality:    "standard",
		Timeout:    5 * time.Second,
	})
	data, err := g.Generate(context.Background(), "Night Tide, eerie, lighthouse", "1024x1024")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("Generate() = %q", data)
	}
}

func TestOpenAIGeneratorSmallSizeUsesSmallModel(t *testing.T) {
	srv := newImageServer(t, "dall-e-2", []byte("small"))
	defer srv.Close()

	g := NewOpenAIGenerator(config.OpenAIImageConfig{APIKey: "k", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second})
	if _, err := g.Generate(context.Background(), "Night Tide, eerie", "512x512"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestOpenAIGeneratorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"content policy","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(config.OpenAIImageConfig{APIKey: "k", BaseURL: srv.URL + "/v1/", Timeout: 5 * time.Second})
	if _, err := g.Generate(context.Background(), "x", "1024x1024"); err == nil {
		t.Fatalf("Generate() expected error")
	}
}

func TestLocalStoreSaveAndURL(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStore(config.LocalStorageConfig{Root: root, PublicBaseURL: "/media/"})

	rel, err := s.Save(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasSuffix(rel, ".png") {
		t.Fatalf("Save() path = %q", rel)
	}
	got, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil || string(got) != "img" {
		t.Fatalf("stored file = %q, %v", got, err)
	}
	if url := s.URL(rel); url != "/media/"+rel {
		t.Fatalf("URL() = %q", url)
	}
	if s.URL("") != "" {
		t.Fatalf("URL(\"\") should be empty")
	}

	if err := s.Delete(context.Background(), rel); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, rel)); !os.IsNotExist(err) {
		t.Fatalf("file should be removed, stat err = %v", err)
	}
	if err := s.Delete(context.Background(), rel); err != nil {
		t.Fatalf("Delete() of missing file error = %v", err)
	}
}

func TestLocalStoreRejectsEmpty(t *testing.T) {
	s := NewLocalStore(config.LocalStorageConfig{Root: t.TempDir()})
	if _, err := s.Save(context.Background(), nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("Save(nil) error = %v, want ErrEmptyImage", err)
	}
}
