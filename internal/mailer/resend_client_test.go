package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResendClient_Send_Success(t *testing.T) {
	var gotBody sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("Authorization = %s, want Bearer re_test", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("リクエストボディのパースに失敗: %v", err)
		}
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewResendClient(server.Client(), logger, "re_test", "Press Relay <noreply@pressrelay.app>")
	c.endpoint = server.URL

	err := c.Send(context.Background(), "user@example.com", "Subject", "<p>body</p>")
	if err != nil {
		t.Fatalf("Send がエラーを返した: %v", err)
	}

	if gotBody.From != "Press Relay <noreply@pressrelay.app>" {
		t.Errorf("from = %s", gotBody.From)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "user@example.com" {
		t.Errorf("to = %v", gotBody.To)
	}
	if gotBody.HTML != "<p>body</p>" {
		t.Errorf("html = %q", gotBody.HTML)
	}

	if !strings.Contains(buf.String(), "email-1") {
		t.Error("送信ログにメールIDが含まれるべき")
	}
}

func TestResendClient_Send_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	c := NewResendClient(server.Client(), logger, "re_test", "noreply@pressrelay.app")
	c.endpoint = server.URL

	err := c.Send(context.Background(), "bad", "Subject", "<p>body</p>")
	if err == nil {
		t.Fatal("APIエラー時にエラーが返るべき")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("エラーにステータスコードが含まれるべき: %v", err)
	}
}
