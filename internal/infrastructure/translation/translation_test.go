package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"serial-story-api/internal/config"
)

func newTestClient(url string, attempts int) *DeepLClient {
	return NewDeepLClient(config.DeepLConfig{
		APIKey:      "test-key",
		BaseURL:     url,
		Timeout:     time.Second,
		MaxAttempts: attempts,
		RetryDelay:  time.Millisecond,
	})
}

func TestDeepLTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/translate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "DeepL-Auth-Key test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req deeplRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.TargetLang != "KO" || len(req.Text) != 1 || req.Text[0] != "Hello" {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"안녕"}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 1).Translate(context.Background(), "Hello", "ko")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "안녕" {
		t.Fatalf("Translate() = %q", got)
	}
}

func TestDeepLRetriesOnTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"translations":[{"text":"Bonjour"}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, 3).Translate(context.Background(), "Hello", "FR")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "Bonjour" || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestDeepLDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Wrong endpoint"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Translate(context.Background(), "Hello", "FR")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("Translate() error = %v, want 403 StatusError", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDeepLEmptyText(t *testing.T) {
	got, err := newTestClient("http://127.0.0.1:1", 1).Translate(context.Background(), "  ", "FR")
	if err != nil || got != "  " {
		t.Fatalf("Translate() = %q, %v", got, err)
	}
}

type fakeTranslator struct {
	calls int
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, text, targetLang string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return targetLang + ":" + text, nil
}

type memoryCache struct {
	data map[string][]byte
}

func (m *memoryCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, loader func(ctx context.Context) (interface{}, error)) ([]byte, error) {
	if b, ok := m.data[key]; ok {
		return b, nil
	}
	v, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m.data[key] = b
	return b, nil
}

func TestCachedTranslator(t *testing.T) {
	next := &fakeTranslator{}
	tr := NewCachedTranslator(next, &memoryCache{data: map[string][]byte{}}, time.Hour)

	for i := 0; i < 3; i++ {
		got, err := tr.Translate(context.Background(), "Hello", "ko")
		if err != nil {
			t.Fatalf("Translate() error = %v", err)
		}
		if got != "ko:Hello" {
			t.Fatalf("Translate() = %q", got)
		}
	}
	if next.calls != 1 {
		t.Fatalf("downstream calls = %d, want 1", next.calls)
	}

	if _, err := tr.Translate(context.Background(), "Hello", "FR"); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("different language should miss cache, calls = %d", next.calls)
	}
}

func TestCachedTranslatorPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	tr := NewCachedTranslator(&fakeTranslator{err: boom}, &memoryCache{data: map[string][]byte{}}, time.Hour)
	if _, err := tr.Translate(context.Background(), "Hello", "FR"); !errors.Is(err, boom) {
		t.Fatalf("Translate() error = %v, want boom", err)
	}
}

func TestCacheKeyNormalizesLanguage(t *testing.T) {
	if cacheKey("a", "ko") != cacheKey("a", " KO ") {
		t.Fatalf("cache key should be case-insensitive on language")
	}
	if cacheKey("a", "KO") == cacheKey("b", "KO") {
		t.Fatalf("cache key should depend on text")
	}
}
