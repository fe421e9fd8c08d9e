package image

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"serial-story-api/internal/config"
)

// LocalStore 将图片写入本地目录，并通过静态路由对外暴露
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore 创建本地存储
func NewLocalStore(cfg config.LocalStorageConfig) *LocalStore {
	root := cfg.Root
	if root == "" {
		root = "media"
	}
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = "/media"
	}
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root 图片根目录
func (s *LocalStore) Root() string { return s.root }

// Save 写入图片并返回相对路径
func (s *LocalStore) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}

	name := uuid.NewString() + ".png"
	tmp := filepath.Join(s.root, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.root, name)); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to commit image: %w", err)
	}
	return name, nil
}

// Delete 删除图片，不存在时忽略
func (s *LocalStore) Delete(_ context.Context, rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.Base(rel)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// URL 返回图片的对外访问地址
func (s *LocalStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return s.baseURL + "/" + path.Base(rel)
}
