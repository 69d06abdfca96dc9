package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/pressrelay/internal/model"
)

// mockGuard はSSRFGuardServiceのモック。
// httptestサーバー（127.0.0.1）への接続を許可するため、素のHTTPクライアントを返す。
type mockGuard struct {
	validateFunc func(rawURL string) error
}

func (m *mockGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	return &http.Client{Timeout: timeout}
}

func (m *mockGuard) ValidateURL(rawURL string) error {
	if m.validateFunc != nil {
		return m.validateFunc(rawURL)
	}
	return nil
}

func newTestStore(t *testing.T, guard *mockGuard) (*ImageStore, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewImageStore(guard, logger, t.TempDir(), 5*time.Second), &buf
}

func TestImageStore_Store_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	store, _ := newTestStore(t, &mockGuard{})

	paths, err := store.Store(context.Background(), "article-1",
		[]string{server.URL + "/a.png", server.URL + "/b.png"})
	if err != nil {
		t.Fatalf("Store がエラーを返した: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("保存パス数 = %d, want 2", len(paths))
	}

	// 記事IDでスコープされたディレクトリに連番で保存される
	for i, path := range paths {
		if filepath.Base(filepath.Dir(path)) != "article-1" {
			t.Errorf("保存先が記事IDディレクトリ配下にない: %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("保存ファイル[%d]の読み取りに失敗: %v", i, err)
		}
		if string(data) != "png-bytes" {
			t.Errorf("保存内容 = %q", data)
		}
	}
}

func TestImageStore_Store_TooManyImages(t *testing.T) {
	store, _ := newTestStore(t, &mockGuard{})

	urls := []string{"https://a", "https://b", "https://c", "https://d"}
	_, err := store.Store(context.Background(), "article-1", urls)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTooManyImages {
		t.Fatalf("TOO_MANY_IMAGESエラーが返るべき: %v", err)
	}
}

func TestImageStore_Store_BlockedURL(t *testing.T) {
	guard := &mockGuard{
		validateFunc: func(rawURL string) error {
			return errors.New("blocked IP address")
		},
	}
	store, _ := newTestStore(t, guard)

	_, err := store.Store(context.Background(), "article-1", []string{"http://169.254.169.254/x"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeImageBlocked {
		t.Fatalf("IMAGE_URL_BLOCKEDエラーが返るべき: %v", err)
	}
}

func TestImageStore_Store_FetchFailureSkipped(t *testing.T) {
	// 1件の取得失敗は残りの画像の保存を妨げない
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	store, buf := newTestStore(t, &mockGuard{})

	paths, err := store.Store(context.Background(), "article-1",
		[]string{server.URL + "/missing.png", server.URL + "/ok.png"})
	if err != nil {
		t.Fatalf("Store がエラーを返した: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("保存パス数 = %d, want 1", len(paths))
	}
	if !bytes.Contains(buf.Bytes(), []byte("ERROR")) {
		t.Error("取得失敗がERRORログに記録されるべき")
	}
}

func TestImageStore_Store_EmptyURLs(t *testing.T) {
	store, _ := newTestStore(t, &mockGuard{})

	paths, err := store.Store(context.Background(), "article-1", nil)
	if err != nil {
		t.Fatalf("Store がエラーを返した: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("保存パス数 = %d, want 0", len(paths))
	}
}
