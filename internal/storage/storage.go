// Package storage fetches the raw import files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"copro-edd-import/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrObjectNotFound = errors.New("object not found")

// Source returns the bytes stored under path.
type Source interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// SupabaseStorage reads objects of one bucket with the service key.
type SupabaseStorage struct {
	httpClient *resty.Client
	bucket     string
	logger     *zap.Logger
}

func NewSupabaseStorage(cfg config.StorageConfig, logger *zap.Logger) *SupabaseStorage {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= http.StatusInternalServerError
		}).
		SetAuthToken(cfg.ServiceKey).
		SetHeader("apikey", cfg.ServiceKey)

	return &SupabaseStorage{
		httpClient: client,
		bucket:     cfg.Bucket,
		logger:     logger,
	}
}

// objectPath escapes each segment of the object path, keeping the separators.
func (s *SupabaseStorage) objectPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/storage/v1/object/" + url.PathEscape(s.bucket) + "/" + strings.Join(segments, "/")
}

func (s *SupabaseStorage) Fetch(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(s.objectPath(path))
	if err != nil {
		s.logger.Error("storage download failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", path, ErrObjectNotFound)
	case resp.IsError():
		s.logger.Error("storage returned error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("failed to download %s: status %d", path, resp.StatusCode())
	}

	s.logger.Debug("storage object downloaded",
		zap.String("path", path),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("took", time.Since(start)),
	)
	return resp.Body(), nil
}

// DirSource reads paths relative to a local directory.
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (d *DirSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(d.root, clean)

	b, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}
