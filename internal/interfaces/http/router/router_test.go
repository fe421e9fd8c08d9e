package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"serial-story-api/internal/config"
	"serial-story-api/internal/interfaces/http/handler"
	"serial-story-api/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string, int, time.Duration) (bool, error) { return true, nil }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "cover.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Name = "serial-story-api"
	cfg.Security.JWT.Secret = "secret"
	cfg.Security.JWT.Issuer = "serial-story"
	cfg.Storage.Local.Root = root
	cfg.Storage.Local.PublicBaseURL = "/media"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"

	authCfg := middleware.AuthConfig{Secret: "secret", Issuer: "serial-story"}
	handlers := &Handlers{
		Health:  handler.NewHealthHandler("test", nil),
		Auth:    handler.NewAuthHandler(authCfg, time.Hour, nil),
		Book:    handler.NewBookHandler(nil, nil, nil),
		Chapter: handler.NewChapterHandler(nil),
		Social:  handler.NewSocialHandler(nil, nil, nil, nil),
	}
	return New(cfg, handlers, allowAll{}).Engine()
}

func TestSystemRoutes(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/health", "/live", "/ready", "/metrics", "/media/cover.png"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, w.Code)
		}
	}
}

func TestWriteRoutesRequireLogin(t *testing.T) {
	r := newTestRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/v1/books"},
		{http.MethodPost, "/v1/books/b1/chapters"},
		{http.MethodPost, "/v1/books/b1/image"},
		{http.MethodDelete, "/v1/books/b1/prologue"},
		{http.MethodPost, "/v1/books/b1/like"},
		{http.MethodPost, "/v1/books/b1/rating"},
		{http.MethodPut, "/v1/books/b1/comments/c1"},
		{http.MethodGet, "/v1/users/me/books"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d, want 401", rt.method, rt.path, w.Code)
		}
	}
}

func TestInvalidTokenRejectedOnReadRoutes(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
