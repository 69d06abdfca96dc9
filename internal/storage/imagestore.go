// Package storage は記事に添付された画像のローカルBlobストアを提供する。
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hitoshi/pressrelay/internal/model"
	"github.com/hitoshi/pressrelay/internal/security"
)

// MaxImages は1記事あたりの画像数の上限。
const MaxImages = 3

// maxImageSize は取得する画像1枚あたりのサイズ上限。
const maxImageSize = 10 * 1024 * 1024

// ImageStore はユーザー指定の画像URLを取得し、記事IDでスコープされた
// ディレクトリに保存する。取得はSSRF防止付きHTTPクライアントで行う。
type ImageStore struct {
	guard   security.SSRFGuardService
	client  *http.Client
	logger  *slog.Logger
	root    string
	timeout time.Duration
}

// NewImageStore はImageStoreの新しいインスタンスを生成する。
// rootは画像の保存先ルートディレクトリ。
func NewImageStore(guard security.SSRFGuardService, logger *slog.Logger, root string, timeout time.Duration) *ImageStore {
	return &ImageStore{
		guard:   guard,
		client:  guard.NewSafeClient(timeout, maxImageSize),
		logger:  logger,
		root:    root,
		timeout: timeout,
	}
}

// Store は画像URLのリストを取得して保存し、保存先パスのリストを返す。
// URLは最大MaxImages件まで。1件でも検証に失敗した場合は何も保存せずエラーを返す。
// 取得失敗は該当画像をスキップするだけで、残りの画像の保存は継続する。
func (s *ImageStore) Store(ctx context.Context, articleID string, urls []string) ([]string, error) {
	if len(urls) > MaxImages {
		return nil, model.NewTooManyImagesError(len(urls))
	}

	// 1. 全URLの事前検証（取得前にまとめて弾く）
	for _, rawURL := range urls {
		if err := s.guard.ValidateURL(rawURL); err != nil {
			s.logger.Warn("画像URLがブロックされました",
				slog.String("article_id", articleID),
				slog.String("error", err.Error()),
			)
			return nil, model.NewImageBlockedError()
		}
	}

	if len(urls) == 0 {
		return nil, nil
	}

	// 2. 保存先ディレクトリの作成
	dir := filepath.Join(s.root, articleID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("画像ディレクトリの作成に失敗しました: %w", err)
	}

	// 3. 1件ずつ取得して保存（取得失敗はスキップ）
	var paths []string
	for i, rawURL := range urls {
		path, err := s.fetchOne(ctx, rawURL, filepath.Join(dir, strconv.Itoa(i)))
		if err != nil {
			s.logger.Error("画像の取得に失敗しました",
				slog.String("article_id", articleID),
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		paths = append(paths, path)
	}

	s.logger.Info("画像を保存しました",
		slog.String("article_id", articleID),
		slog.Int("requested", len(urls)),
		slog.Int("stored", len(paths)),
	)
	return paths, nil
}

// fetchOne は1件の画像を取得してdestに保存する。
func (s *ImageStore) fetchOne(ctx context.Context, rawURL, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("画像の取得がステータス %d で失敗しました", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("画像ファイルの作成に失敗しました: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxImageSize)); err != nil {
		return "", fmt.Errorf("画像の書き込みに失敗しました: %w", err)
	}

	return dest, nil
}
